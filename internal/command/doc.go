// Package command builds the per-client benchmark invocations.
//
// An Invocation describes what one client must do: the operation mode, the
// vectorization and verbosity switches, the target directory and the ordered
// task list. It is a plain value; nothing here executes a process.
//
//	invs := command.Compose(command.Request{
//	    Mode:       command.ModeRead,
//	    Vectorized: true,
//	    Dir:        "/vfs0/files-4K",
//	    Targets:    []string{"0", "4"},
//	}, taskLists)
//	argv := invs[0].Args(command.Options{Program: "tc_rw_files2", Sudo: true})
package command
