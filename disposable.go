package inject

import "context"

// Disposable is implemented by values that hold resources. The kernel
// closes the values it constructed when it is closed.
//
// Example:
//
//	type Database struct {
//	    conn *sql.DB
//	}
//
//	func (d *Database) Close() error {
//	    return d.conn.Close()
//	}
type Disposable interface {
	Close() error
}

// DisposableWithContext allows context-aware cleanup. Kernel.Close calls it
// with context.Background().
//
// Example:
//
//	func (s *Server) Close(ctx context.Context) error {
//	    return s.http.Shutdown(ctx)
//	}
type DisposableWithContext interface {
	Close(ctx context.Context) error
}
