/*
Package mysql implements the MySQL/MariaDB client-server wire protocol:
packet framing, handshake and authentication plugin negotiation, the text
and binary result-set protocols, prepared statements, LOAD DATA LOCAL
INFILE, and optional compression.

to connect and run a query:

	conn, err := mysql.Open(ctx, mysql.Options{
		Network:  "tcp",
		Address:  "127.0.0.1:3306",
		Username: "root",
		Password: "secret",
		Database: "test",
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	rows, err := conn.Query(ctx, "select id, name from users")
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		row := rows.Row()
		fmt.Println(row[0], row[1])
	}
	if err := rows.Err(); err != nil {
		return err
	}

to use a prepared statement:

	stmt, err := conn.Prepare(ctx, "select name from users where id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()
	rows, err := stmt.Execute(ctx, mysql.Int64Value(42))
	...

the pool subpackage provides a bounded, FIFO-fair connection pool on top
of this package's *Conn.
*/
package mysql
