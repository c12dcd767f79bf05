package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/wudi/pdfview/inspect"
	"github.com/wudi/pdfview/parser"
	"github.com/wudi/pdfview/recovery"
	"github.com/wudi/pdfview/scanner"
)

// fileConfig is the layout of the optional TOML configuration file.
//
//	verbosity = 1
//	log_file = "/tmp/pdfdump.log"
//	lenient = true
//
//	[scanner]
//	max_string_length = 1048576
type fileConfig struct {
	Verbosity           int    `toml:"verbosity"`
	LogFile             string `toml:"log_file"`
	MaxInputBytes       int64  `toml:"max_input_bytes"`
	Lenient             bool   `toml:"lenient"`
	RejectDuplicateKeys bool   `toml:"reject_duplicate_keys"`
	Scanner             struct {
		MaxStringLength int64 `toml:"max_string_length"`
		MaxArrayDepth   int   `toml:"max_array_depth"`
		MaxDictDepth    int   `toml:"max_dict_depth"`
		MaxStreamLength int64 `toml:"max_stream_length"`
		MaxStreamScan   int64 `toml:"max_stream_scan"`
	} `toml:"scanner"`
}

func loadConfig(path string) (fileConfig, error) {
	var fc fileConfig
	if path == "" {
		return fc, nil
	}
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return fc, errors.Wrapf(err, "load config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fc, errors.Errorf("config %s: unknown key %s", path, undecoded[0])
	}
	return fc, nil
}

// sessionConfig maps the file settings onto an inspection config. The
// returned strategy is nil unless lenient parsing is enabled.
func (fc fileConfig) sessionConfig() (inspect.Config, *recovery.LenientStrategy) {
	cfg := inspect.Config{
		MaxInputBytes: fc.MaxInputBytes,
		Parser: parser.Config{
			Scanner: scanner.Config{
				MaxStringLength: fc.Scanner.MaxStringLength,
				MaxArrayDepth:   fc.Scanner.MaxArrayDepth,
				MaxDictDepth:    fc.Scanner.MaxDictDepth,
				MaxStreamLength: fc.Scanner.MaxStreamLength,
				MaxStreamScan:   fc.Scanner.MaxStreamScan,
			},
		},
	}
	if fc.RejectDuplicateKeys {
		cfg.Parser.DuplicateKeys = parser.RejectDuplicates
	}
	var lenient *recovery.LenientStrategy
	if fc.Lenient {
		lenient = recovery.NewLenientStrategy()
		cfg.Parser.Recovery = lenient
	}
	return cfg, lenient
}
