package core

import "io"

// NoopUI discards all output. Used in tests and as the default before a real
// UI is attached.
type NoopUI struct{}

var _ UI = (*NoopUI)(nil)

func (n *NoopUI) Section(title string)                       {}
func (n *NoopUI) Title(title string)                         {}
func (n *NoopUI) Success(msg string)                         {}
func (n *NoopUI) Info(msg string)                            {}
func (n *NoopUI) Warning(msg string)                         {}
func (n *NoopUI) Error(msg string)                           {}
func (n *NoopUI) Printf(format string, args ...interface{})  {}
func (n *NoopUI) Println(args ...interface{})                {}
func (n *NoopUI) WithWriter(w io.Writer) UI                  { return n }
