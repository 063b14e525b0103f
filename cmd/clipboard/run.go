package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/google/uuid"
	"github.com/oriumgames/clipboard"
	"github.com/oriumgames/clipboard/config"
	"github.com/oriumgames/clipboard/format"
	"github.com/oriumgames/clipboard/schematic"
	"github.com/oriumgames/clipboard/store"
	"github.com/sirupsen/logrus"
)

const usage = `Usage: clipboard [-config file] [-world file] [-store dir] <command> [flags]

Commands:
  copy     -min x,y,z -max x,y,z [-origin x,y,z] -o out.schematic
  paste    -i in.schematic -at x,y,z [-skip-air]
  info     -i in.schematic
  stash    -player uuid -i in.schematic
  unstash  -player uuid -o out.schematic [-delete]
  list
`

// env is the state shared by all commands.
type env struct {
	cfg config.Config
	log *logrus.Logger
}

// run parses the global flags and executes the named command.
func run(args []string, log *logrus.Logger) error {
	fs := flag.NewFlagSet("clipboard", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "YAML configuration file")
	worldPath := fs.String("world", "", "world file, overrides world.path")
	storeDir := fs.String("store", "", "clipboard store directory, overrides store.dir")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w\n%s", err, usage)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *worldPath != "" {
		cfg.World.Path = *worldPath
	}
	if *storeDir != "" {
		cfg.Store.Dir = *storeDir
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return err
	}
	log.SetLevel(level)

	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}
	e := &env{cfg: cfg, log: log}

	cmdArgs := rest[1:]
	switch rest[0] {
	case "copy":
		return e.copy(cmdArgs)
	case "paste":
		return e.paste(cmdArgs)
	case "info":
		return e.info(cmdArgs)
	case "stash":
		return e.stash(cmdArgs)
	case "unstash":
		return e.unstash(cmdArgs)
	case "list":
		return e.list()
	}
	return fmt.Errorf("unknown command %q\n%s", rest[0], usage)
}

func (e *env) copy(args []string) error {
	fs := flag.NewFlagSet("copy", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var lo, hi, origin posFlag
	fs.Var(&lo, "min", "first corner x,y,z")
	fs.Var(&hi, "max", "second corner x,y,z")
	fs.Var(&origin, "origin", "copy origin x,y,z, defaults to the world spawn")
	out := fs.String("o", "", "output schematic")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !lo.set || !hi.set || *out == "" {
		return errors.New("copy: -min, -max and -o are required")
	}

	w, err := format.ReadFile(e.cfg.World.Path)
	if err != nil {
		return err
	}
	w.SetReadOnly(true)
	if !origin.set {
		origin.pos = w.Settings.Spawn
	}

	c, err := clipboard.New(lo.pos, hi.pos, origin.pos)
	if err != nil {
		return err
	}
	if err := c.Copy(w); err != nil {
		return err
	}
	if err := schematic.Save(*out, c); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"path":   *out,
		"size":   fmt.Sprintf("%dx%dx%d", c.Width(), c.Height(), c.Length()),
		"blocks": c.Count(),
	}).Info("Copied region.")
	return nil
}

func (e *env) paste(args []string) error {
	fs := flag.NewFlagSet("paste", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var at posFlag
	fs.Var(&at, "at", "anchor x,y,z the clipboard origin is placed on")
	in := fs.String("i", "", "input schematic")
	skipAir := fs.Bool("skip-air", e.cfg.Paste.SkipAir, "leave blocks under air cells untouched")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !at.set || *in == "" {
		return errors.New("paste: -i and -at are required")
	}

	c, err := schematic.Load(*in, cube.Pos{})
	if err != nil {
		return err
	}
	w, err := e.openWorld()
	if err != nil {
		return err
	}
	if err := c.Paste(w, at.pos, *skipAir); err != nil {
		return err
	}
	fields := logrus.Fields{
		"path":     e.cfg.World.Path,
		"at":       at.pos,
		"volume":   c.Volume(),
		"skip_air": *skipAir,
	}
	if !w.IsDirty() {
		e.log.WithFields(fields).Info("Paste changed no chunks, world not saved.")
		return nil
	}

	level, err := e.cfg.CompressionLevel()
	if err != nil {
		return err
	}
	if err := format.WriteFile(e.cfg.World.Path, w, level); err != nil {
		return err
	}
	fields["chunks"] = w.ChunkCount()
	e.log.WithFields(fields).Info("Pasted clipboard.")
	return nil
}

func (e *env) info(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	in := fs.String("i", "", "input schematic")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return errors.New("info: -i is required")
	}

	c, err := schematic.Load(*in, cube.Pos{})
	if err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{
		"path":   *in,
		"width":  c.Width(),
		"height": c.Height(),
		"length": c.Length(),
		"volume": c.Volume(),
		"blocks": c.Count(),
	}).Info("Schematic.")
	return nil
}

func (e *env) stash(args []string) error {
	fs := flag.NewFlagSet("stash", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	player := fs.String("player", "", "player uuid")
	in := fs.String("i", "", "input schematic")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := uuid.Parse(*player)
	if err != nil {
		return fmt.Errorf("stash: -player: %w", err)
	}
	if *in == "" {
		return errors.New("stash: -i is required")
	}

	c, err := schematic.Load(*in, cube.Pos{})
	if err != nil {
		return err
	}
	s, err := store.Open(e.cfg.Store.Dir, e.log)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Put(id, c); err != nil {
		return err
	}
	e.log.WithFields(logrus.Fields{"player": id, "path": *in}).Info("Stashed clipboard.")
	return nil
}

func (e *env) unstash(args []string) error {
	fs := flag.NewFlagSet("unstash", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	player := fs.String("player", "", "player uuid")
	out := fs.String("o", "", "output schematic")
	del := fs.Bool("delete", false, "remove the clipboard from the store afterwards")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := uuid.Parse(*player)
	if err != nil {
		return fmt.Errorf("unstash: -player: %w", err)
	}
	if *out == "" {
		return errors.New("unstash: -o is required")
	}

	s, err := store.Open(e.cfg.Store.Dir, e.log)
	if err != nil {
		return err
	}
	defer s.Close()
	c, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := schematic.Save(*out, c); err != nil {
		return err
	}
	if *del {
		if err := s.Delete(id); err != nil {
			return err
		}
	}
	e.log.WithFields(logrus.Fields{"player": id, "path": *out}).Info("Unstashed clipboard.")
	return nil
}

func (e *env) list() error {
	s, err := store.Open(e.cfg.Store.Dir, e.log)
	if err != nil {
		return err
	}
	defer s.Close()
	ids, err := s.Players()
	if err != nil {
		return err
	}
	for _, id := range ids {
		e.log.WithField("player", id).Info("Stored clipboard.")
	}
	return nil
}

// openWorld reads the configured world file, creating an empty world when
// it does not exist yet.
func (e *env) openWorld() (*format.World, error) {
	w, err := format.ReadFile(e.cfg.World.Path)
	if errors.Is(err, os.ErrNotExist) {
		e.log.WithField("path", e.cfg.World.Path).Info("Creating new world.")
		return format.NewWorld(e.cfg.World.MinSection, e.cfg.World.MaxSection), nil
	}
	return w, err
}

// posFlag is a flag.Value holding a block position written as x,y,z.
type posFlag struct {
	pos cube.Pos
	set bool
}

func (p *posFlag) String() string {
	return fmt.Sprintf("%d,%d,%d", p.pos[0], p.pos[1], p.pos[2])
}

func (p *posFlag) Set(s string) error {
	pos, err := parsePos(s)
	if err != nil {
		return err
	}
	p.pos, p.set = pos, true
	return nil
}

func parsePos(s string) (cube.Pos, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return cube.Pos{}, fmt.Errorf("position %q is not x,y,z", s)
	}
	var pos cube.Pos
	for i, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return cube.Pos{}, fmt.Errorf("position %q: %w", s, err)
		}
		pos[i] = v
	}
	return pos, nil
}
