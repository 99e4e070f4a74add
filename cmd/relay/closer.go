package main

import "io"

// multiCloser closes every underlying Closer in order, collecting the
// first error but still attempting every Close so one generation's
// connector leak doesn't mask its recorder's.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
