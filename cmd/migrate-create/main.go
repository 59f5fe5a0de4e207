package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"crystal-ball/internal/logging"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

var migrationName = regexp.MustCompile(`^[a-z0-9_]+$`)

func main() {
	name := pflag.StringP("name", "n", "", "migration name (lowercase, digits and underscores)")
	dir := pflag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	pflag.Parse()

	logging.Setup("info", true)
	if *name == "" {
		log.Fatal().Msg("migration name is required")
	}
	if !migrationName.MatchString(*name) {
		log.Fatal().Str("name", *name).Msg("migration name must match [a-z0-9_]+")
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create migrations dir")
	}
	if err := writeFile(upPath, "-- up migration: "+*name+"\n"); err != nil {
		log.Fatal().Err(err).Msg("create up migration")
	}
	if err := writeFile(downPath, "-- down migration: "+*name+"\n"); err != nil {
		log.Fatal().Err(err).Msg("create down migration")
	}

	log.Info().Str("up", upPath).Str("down", downPath).Msg("migration created")
}

func writeFile(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
