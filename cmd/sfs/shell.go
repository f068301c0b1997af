package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/weberc2/sfs/pkg/filesystem"
	. "github.com/weberc2/sfs/pkg/types"
)

// Shell is the interactive session. Command errors are printed and the
// session continues; only I/O errors on `In` or `Out` end it.
type Shell struct {
	FileSystem *filesystem.FileSystem
	In         io.Reader
	Out        io.Writer
}

const shellHelp = `commands:
  mount                 load the image from the store
  format                create an empty filesystem
  ls [dir]              list a directory
  create <name>         create an empty file
  mkdir <name>          create a directory
  write <name> <data>   replace a file's content ("quotes" are stripped)
  read <name>           print a file's content
  delete <name>         delete a file or an empty directory
  info <name>           print a file's inode
  stat                  print usage statistics
  check                 validate the image
  cd <dir>              change the current directory
  pwd                   print the current directory
  save                  flush the image to the store
  help                  print this help
  exit                  leave the shell
`

func (s *Shell) Run() error {
	if err := s.FileSystem.Mount(); err != nil {
		if !errors.Is(err, NoImageErr) {
			return err
		}
		if _, err := fmt.Fprintln(
			s.Out,
			"no filesystem found; use `format` to create one",
		); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(s.In)
	for {
		if _, err := io.WriteString(s.Out, s.prompt()); err != nil {
			return err
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading command: %w", err)
			}
			return nil
		}
		exit, err := s.Exec(scanner.Text())
		if err != nil {
			if _, err := fmt.Fprintf(s.Out, "error: %v\n", err); err != nil {
				return err
			}
		}
		if exit {
			return nil
		}
	}
}

func (s *Shell) prompt() string {
	cwd, err := s.FileSystem.Cwd()
	if err != nil {
		return "sfs> "
	}
	return "sfs:" + cwd + "> "
}

// Exec runs a single command line. It reports whether the session should
// end.
func (s *Shell) Exec(line string) (bool, error) {
	command, rest := splitWord(strings.TrimSpace(line))
	arg, _ := splitWord(rest)
	fs := s.FileSystem

	switch command {
	case "":
		return false, nil
	case "exit", "quit":
		return true, nil
	case "help":
		_, err := io.WriteString(s.Out, shellHelp)
		return false, err
	case "mount":
		if err := fs.Mount(); err != nil {
			return false, err
		}
		return false, s.printUsage()
	case "format":
		if err := fs.Format(); err != nil {
			return false, err
		}
		_, err := fmt.Fprintln(s.Out, "formatted")
		return false, err
	case "ls":
		return false, ls(s.Out, fs, arg)
	case "create":
		if arg == "" {
			return false, usageErr("create <name>")
		}
		return false, fs.Create(arg)
	case "mkdir":
		if arg == "" {
			return false, usageErr("mkdir <name>")
		}
		return false, fs.Mkdir(arg)
	case "write":
		name, data := splitWord(rest)
		if name == "" || data == "" {
			return false, usageErr("write <name> <data>")
		}
		if len(data) > 1 && data[0] == '"' && data[len(data)-1] == '"' {
			data = data[1 : len(data)-1]
		}
		n, err := fs.Write(name, []byte(data))
		if err != nil {
			return false, err
		}
		_, err = fmt.Fprintf(s.Out, "wrote %d bytes\n", n)
		return false, err
	case "read":
		if arg == "" {
			return false, usageErr("read <name>")
		}
		data, err := fs.Read(arg)
		if err != nil {
			return false, err
		}
		_, err = fmt.Fprintf(s.Out, "%s\n", data)
		return false, err
	case "delete", "rm":
		if arg == "" {
			return false, usageErr("delete <name>")
		}
		return false, fs.Delete(arg)
	case "info":
		if arg == "" {
			return false, usageErr("info <name>")
		}
		stat, err := fs.Stat(arg)
		if err != nil {
			return false, err
		}
		return false, printJSON(s.Out, stat)
	case "stat":
		return false, s.printUsage()
	case "check":
		if err := fs.Check(); err != nil {
			return false, err
		}
		_, err := fmt.Fprintln(s.Out, "ok")
		return false, err
	case "cd":
		if arg == "" {
			arg = "/"
		}
		return false, fs.Chdir(arg)
	case "pwd":
		cwd, err := fs.Cwd()
		if err != nil {
			return false, err
		}
		_, err = fmt.Fprintln(s.Out, cwd)
		return false, err
	case "save":
		if err := fs.Flush(); err != nil {
			return false, err
		}
		_, err := fmt.Fprintln(s.Out, "saved")
		return false, err
	default:
		return false, fmt.Errorf(
			"unknown command `%s`; type `help` for a list",
			command,
		)
	}
}

func (s *Shell) printUsage() error {
	usage, err := s.FileSystem.Usage()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(
		s.Out,
		"blocks: %d/%d used, inodes: %d/%d used, %.1f%% full\n",
		usage.Blocks.Used,
		usage.Blocks.Total,
		usage.Inodes.Used,
		usage.Inodes.Total,
		usage.PercentUsed,
	)
	return err
}

func usageErr(usage string) error { return fmt.Errorf("usage: %s", usage) }

func splitWord(s string) (string, string) {
	s = strings.TrimLeft(s, " \t")
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i], strings.TrimLeft(s[i+1:], " \t")
	}
	return s, ""
}

func ls(w io.Writer, fs *filesystem.FileSystem, dir string) error {
	entries, err := fs.List(dir)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, entry := range entries {
		kind := "-"
		if entry.FileType == FileTypeDir {
			kind = "d"
		}
		if _, err := fmt.Fprintf(
			tw,
			"%s\t%d\t%d\t%d\t%s\t%s\n",
			kind,
			entry.Ino,
			entry.Size,
			entry.Blocks,
			entry.MTime,
			entry.Name,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}
