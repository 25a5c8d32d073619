package main

import "github.com/BurntSushi/toml"

// fileConfig is the on-disk shape of a gather-demo config file, loadable
// with --config and overridable by the same-named command-line flags.
type fileConfig struct {
	NumWorkers        uint32 `toml:"num_workers"`
	SingleCopy        bool   `toml:"single_copy"`
	ParallelSend      bool   `toml:"parallel_send"`
	StatisticsEnabled bool   `toml:"statistics_enabled"`
	RowCount          int    `toml:"row_count"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	_, err := toml.DecodeFile(path, &cfg)
	return cfg, err
}
