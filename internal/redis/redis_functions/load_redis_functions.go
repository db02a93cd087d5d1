package redis_functions

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:embed *.lua
var fs embed.FS

// Function names registered by the embedded libraries.
const (
	RoundRecord = "round_record"
)

type library struct {
	file string
	code string
}

// libraries returns the embedded Lua sources in file order.
func libraries() ([]library, error) {
	files, err := fs.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("read embed dir: %w", err)
	}
	var libs []library
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".lua") {
			continue
		}
		code, err := fs.ReadFile(f.Name())
		if err != nil {
			return nil, err
		}
		libs = append(libs, library{file: f.Name(), code: string(code)})
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].file < libs[j].file })
	return libs, nil
}

// LoadAll loads or replaces every embedded Lua library in Redis.
func LoadAll(ctx context.Context, rdb redis.Cmdable) error {
	libs, err := libraries()
	if err != nil {
		return err
	}
	for _, l := range libs {
		if err := rdb.FunctionLoadReplace(ctx, l.code).Err(); err != nil {
			return fmt.Errorf("load lua %s: %w", l.file, err)
		}
		zap.L().Info("lua function loaded", zap.String("file", l.file))
	}
	return nil
}
