package main

import (
	"fmt"
	"strconv"
	"strings"
)

type command struct {
	name    string
	steps   int
	version int
	target  uint
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, fmt.Errorf("%w: missing command", errUsage)
	}

	c := command{name: strings.ToLower(strings.TrimSpace(args[0]))}
	rest := args[1:]
	switch c.name {
	case "up", "version":
		return c, nil
	case "down":
		c.steps = 1
		if len(rest) == 0 {
			return c, nil
		}
		steps, err := strconv.Atoi(strings.TrimSpace(rest[0]))
		if err != nil || steps <= 0 {
			return command{}, fmt.Errorf("%w: down steps must be a positive integer, got %q", errUsage, rest[0])
		}
		c.steps = steps
		return c, nil
	case "force":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("%w: force requires a version", errUsage)
		}
		version, err := strconv.Atoi(strings.TrimSpace(rest[0]))
		if err != nil || version < 0 {
			return command{}, fmt.Errorf("%w: invalid version %q", errUsage, rest[0])
		}
		c.version = version
		return c, nil
	case "goto", "migrate":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("%w: goto requires a target version", errUsage)
		}
		target, err := strconv.ParseUint(strings.TrimSpace(rest[0]), 10, 64)
		if err != nil {
			return command{}, fmt.Errorf("%w: invalid target version %q", errUsage, rest[0])
		}
		c.name = "goto"
		c.target = uint(target)
		return c, nil
	}
	return command{}, fmt.Errorf("%w: unknown command %q", errUsage, c.name)
}
