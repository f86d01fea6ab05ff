// Package config holds the run configuration of one benchmark invocation.
//
// A Config is built once, from Default, an optional YAML or JSON file and
// command-line overrides, then validated and passed by value to every
// component. Nothing mutates it afterwards.
//
//	file, err := config.LoadFile("bench.yaml")
//	if err != nil {
//	    return err
//	}
//	cfg, err := file.Apply(config.Default())
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err // wraps ErrConfig
//	}
//
// # File Format
//
//	benchmark:
//	  clients: 4
//	  dir: /vfs0/files-4K
//	  mode: write
//	  files: 1000
//	  overlap: 50
//	  overlap_style: front
//	  vectorized: true
//	  history: results.db
//	runner:
//	  kind: commander
//	  commander: ./commander.sh
//	  targets: ["0", "4", "1", "5"]
package config
