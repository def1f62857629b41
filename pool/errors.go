package pool

import "github.com/pkg/errors"

// PoolClosed is returned by Acquire once Close has been called.
var PoolClosed = errors.New("mysql/pool: pool closed")

// PoolTimeout is returned by Acquire when neither an idle connection nor a
// new-connection slot became available before the context deadline.
var PoolTimeout = errors.New("mysql/pool: acquire timeout, pool exhausted")
