package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const defaultSettle = 5 * time.Second

// script 非交互运行时按顺序执行的命令
type script struct {
	Photo    []byte
	Settle   time.Duration
	Commands []string
}

type scriptFile struct {
	Photo    string   `toml:"photo"`
	Settle   string   `toml:"settle"`
	Commands []string `toml:"commands"`
}

func loadScript(path string) (script, error) {
	var raw scriptFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return script{}, fmt.Errorf("load script: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return script{}, fmt.Errorf("load script: unknown key %q", undecoded[0].String())
	}

	out := script{Settle: defaultSettle}

	if meta.IsDefined("settle") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Settle))
		if err != nil {
			return script{}, fmt.Errorf("parse settle: %w", err)
		}
		out.Settle = d
	}

	if meta.IsDefined("photo") {
		photo, err := os.ReadFile(strings.TrimSpace(raw.Photo))
		if err != nil {
			return script{}, fmt.Errorf("read photo: %w", err)
		}
		out.Photo = photo
	}

	for _, c := range raw.Commands {
		if c = strings.TrimSpace(c); c != "" && !strings.HasPrefix(c, "#") {
			out.Commands = append(out.Commands, c)
		}
	}
	if len(out.Commands) == 0 {
		return script{}, fmt.Errorf("load script: no commands")
	}
	return out, nil
}
