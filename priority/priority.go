package priority

import (
	"reniced/proc"
)

// Priority is the live implementation of the adjuster's provider. Reads go
// through the process table rather than getpriority(2): the raw syscall
// encodes its result as 20-nice to keep the error range free, while the stat
// file reports the plain value.
type Priority struct {
	table *proc.Table
}

func New(table *proc.Table) *Priority {
	return &Priority{table: table}
}

// Nice returns pid's current nice value.
func (p *Priority) Nice(pid int) (int, error) {
	return p.table.Nice(pid)
}
