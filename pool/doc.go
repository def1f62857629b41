/*
Package pool implements a bounded, FIFO-fair connection pool on top of
mysql.Conn.

	p := pool.New(pool.Config{
		Options: mysql.Options{Network: "tcp", Address: "127.0.0.1:3306", Username: "root"},
		MinSize: 2,
		MaxSize: 10,
		IdleTimeout: 5 * time.Minute,
	})
	defer p.Close()

	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)
*/
package pool
