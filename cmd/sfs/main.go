package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	pz "github.com/weberc2/httpeasy"
	"github.com/weberc2/sfs/pkg/api"
	"github.com/weberc2/sfs/pkg/filesystem"
	"github.com/weberc2/sfs/pkg/imagestore"
	"github.com/weberc2/sfs/pkg/log"
)

func main() {
	app := cli.App{
		Name:  appName,
		Usage: "a single-image filesystem persisted as one blob",
		Description: "configuration is read from the YAML file named by " +
			"`SFS_CONFIG_FILE` and from `SFS_*` environment variables",
		Commands: []*cli.Command{{
			Name:  "format",
			Usage: "create an empty filesystem, replacing any existing image",
			Action: withFS(false, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				if err := fs.Format(); err != nil {
					return err
				}
				sb, err := fs.Superblock()
				if err != nil {
					return err
				}
				return printJSON(ctx.App.Writer, &sb)
			}),
		}, {
			Name:  "mount",
			Usage: "load and validate the image",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				sb, err := fs.Superblock()
				if err != nil {
					return err
				}
				return printJSON(ctx.App.Writer, &sb)
			}),
		}, {
			Name:      "ls",
			Aliases:   []string{"list"},
			Usage:     "list a directory",
			ArgsUsage: "[DIR]",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return ls(ctx.App.Writer, fs, ctx.Args().First())
			}),
		}, {
			Name:      "create",
			Aliases:   []string{"touch"},
			Usage:     "create an empty file",
			ArgsUsage: "NAME",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name, err := requireArg(ctx, 0, "NAME")
				if err != nil {
					return err
				}
				return fs.Create(name)
			}),
		}, {
			Name:      "mkdir",
			Usage:     "create a directory",
			ArgsUsage: "NAME",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name, err := requireArg(ctx, 0, "NAME")
				if err != nil {
					return err
				}
				return fs.Mkdir(name)
			}),
		}, {
			Name:      "write",
			Usage:     "replace a file's content; `-` reads the content from stdin",
			ArgsUsage: "NAME DATA",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name, err := requireArg(ctx, 0, "NAME")
				if err != nil {
					return err
				}
				data, err := requireArg(ctx, 1, "DATA")
				if err != nil {
					return err
				}
				p := []byte(data)
				if data == "-" {
					if p, err = io.ReadAll(os.Stdin); err != nil {
						return fmt.Errorf("reading stdin: %w", err)
					}
				}
				n, err := fs.Write(name, p)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(ctx.App.Writer, "wrote %d bytes\n", n)
				return err
			}),
		}, {
			Name:      "read",
			Aliases:   []string{"cat"},
			Usage:     "print a file's content",
			ArgsUsage: "NAME",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name, err := requireArg(ctx, 0, "NAME")
				if err != nil {
					return err
				}
				data, err := fs.Read(name)
				if err != nil {
					return err
				}
				_, err = ctx.App.Writer.Write(data)
				return err
			}),
		}, {
			Name:      "rm",
			Aliases:   []string{"delete"},
			Usage:     "delete a file or an empty directory",
			ArgsUsage: "NAME",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name, err := requireArg(ctx, 0, "NAME")
				if err != nil {
					return err
				}
				return fs.Delete(name)
			}),
		}, {
			Name:      "info",
			Usage:     "print a file's inode and block usage",
			ArgsUsage: "NAME",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				name, err := requireArg(ctx, 0, "NAME")
				if err != nil {
					return err
				}
				stat, err := fs.Stat(name)
				if err != nil {
					return err
				}
				return printJSON(ctx.App.Writer, stat)
			}),
		}, {
			Name:  "stat",
			Usage: "print block and inode usage",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				usage, err := fs.Usage()
				if err != nil {
					return err
				}
				return printJSON(ctx.App.Writer, usage)
			}),
		}, {
			Name:  "check",
			Usage: "validate the image's structure",
			Action: withFS(true, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				if err := fs.Check(); err != nil {
					return err
				}
				_, err := fmt.Fprintln(ctx.App.Writer, "ok")
				return err
			}),
		}, {
			Name:  "shell",
			Usage: "run an interactive session against the image",
			Action: withFS(false, func(fs *filesystem.FileSystem, ctx *cli.Context) error {
				return (&Shell{
					FileSystem: fs,
					In:         os.Stdin,
					Out:        ctx.App.Writer,
				}).Run()
			}),
		}, {
			Name:  "serve",
			Usage: "serve the HTTP API",
			Action: func(ctx *cli.Context) error {
				c, fs, err := setup(ctx, true)
				if err != nil {
					return err
				}
				routes := (&api.API{FileSystem: fs}).Routes()
				if c.TokenSecret != "" {
					routes = (&api.Authenticator{
						Secret: []byte(c.TokenSecret),
					}).Protect(routes)
				}
				log.FromContext(ctx.Context).Info(
					"listening",
					"addr", c.Addr,
					"auth", c.TokenSecret != "",
				)
				return http.ListenAndServe(
					c.Addr,
					pz.Register(pz.JSONLog(os.Stderr), routes...),
				)
			},
		}, {
			Name:      "token",
			Usage:     "issue an API token",
			ArgsUsage: "USER",
			Flags: []cli.Flag{&cli.DurationFlag{
				Name:  "validity",
				Usage: "how long the token remains valid",
				Value: 24 * time.Hour,
			}},
			Action: func(ctx *cli.Context) error {
				user, err := requireArg(ctx, 0, "USER")
				if err != nil {
					return err
				}
				c, err := loadConfig()
				if err != nil {
					return err
				}
				if c.TokenSecret == "" {
					return fmt.Errorf(
						"missing required configuration: tokenSecret / %s_TOKEN_SECRET",
						envVarPrefix,
					)
				}
				token, err := (&api.Authenticator{
					Secret: []byte(c.TokenSecret),
				}).Issue(user, time.Now(), ctx.Duration("validity"))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(ctx.App.Writer, token)
				return err
			},
		}, {
			Name:  "snapshot",
			Usage: "copy the current image to a new snapshot (s3 backend)",
			Action: withObjectStore(func(store *imagestore.ObjectImageStore, ctx *cli.Context) error {
				id, err := store.Snapshot()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(ctx.App.Writer, id)
				return err
			}),
		}, {
			Name:  "snapshots",
			Usage: "list snapshots (s3 backend)",
			Action: withObjectStore(func(store *imagestore.ObjectImageStore, ctx *cli.Context) error {
				ids, err := store.Snapshots()
				if err != nil {
					return err
				}
				return printJSON(ctx.App.Writer, ids)
			}),
		}, {
			Name:      "restore",
			Usage:     "replace the current image with a snapshot (s3 backend)",
			ArgsUsage: "ID",
			Action: withObjectStore(func(store *imagestore.ObjectImageStore, ctx *cli.Context) error {
				id, err := requireArg(ctx, 0, "ID")
				if err != nil {
					return err
				}
				return store.RestoreSnapshot(id)
			}),
		}, {
			Name:      "rm-snapshot",
			Usage:     "delete a snapshot (s3 backend)",
			ArgsUsage: "ID",
			Action: withObjectStore(func(store *imagestore.ObjectImageStore, ctx *cli.Context) error {
				id, err := requireArg(ctx, 0, "ID")
				if err != nil {
					return err
				}
				return store.DeleteSnapshot(id)
			}),
		}, {
			Name:  "pg",
			Usage: "commands for interacting with the backing pg table",
			Subcommands: []*cli.Command{{
				Name:    "ensure",
				Aliases: []string{"make", "create"},
				Usage:   "create the table if it doesn't already exist",
				Action: withPG(func(store *imagestore.PGImageStore, ctx *cli.Context) error {
					return store.EnsureTable()
				}),
			}, {
				Name:    "drop",
				Aliases: []string{"delete", "destroy"},
				Usage:   "drop the postgres table",
				Action: withPG(func(store *imagestore.PGImageStore, ctx *cli.Context) error {
					return store.DropTable()
				}),
			}, {
				Name:  "reset",
				Usage: "delete and recreate the postgres table",
				Action: withPG(func(store *imagestore.PGImageStore, ctx *cli.Context) error {
					return store.ResetTable()
				}),
			}, {
				Name:  "clear",
				Usage: "clear the rows from the table without dropping it",
				Action: withPG(func(store *imagestore.PGImageStore, ctx *cli.Context) error {
					return store.ClearTable()
				}),
			}},
		}},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		stdlog.Fatal(err)
	}
}

func loadConfig() (*Config, error) {
	c, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// setup builds the filesystem from the environment's configuration and
// optionally mounts it. The configured logger is attached to `ctx`.
func setup(
	ctx *cli.Context,
	mount bool,
) (*Config, *filesystem.FileSystem, error) {
	c, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.Logger()
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}
	ctx.Context = log.Context(ctx.Context, logger)
	store, err := c.ImageStore()
	if err != nil {
		return nil, nil, err
	}
	fs := filesystem.New(&filesystem.Params{
		Store:    store,
		Geometry: c.Geometry(),
		Logger:   logger,
	})
	if mount {
		if err := fs.Mount(); err != nil {
			return nil, nil, err
		}
	}
	return c, fs, nil
}

func withFS(
	mount bool,
	f func(*filesystem.FileSystem, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		_, fs, err := setup(ctx, mount)
		if err != nil {
			return err
		}
		return f(fs, ctx)
	}
}

func withObjectStore(
	f func(*imagestore.ObjectImageStore, *cli.Context) error,
) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := c.ObjectImageStore()
		if err != nil {
			return fmt.Errorf("opening object image store: %w", err)
		}
		return f(store, ctx)
	}
}

func withPG(f func(*imagestore.PGImageStore, *cli.Context) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := c.PGImageStore()
		if err != nil {
			return fmt.Errorf("opening PGImageStore: %w", err)
		}
		defer store.Close()
		return f(store, ctx)
	}
}

func requireArg(ctx *cli.Context, i int, name string) (string, error) {
	if ctx.NArg() <= i {
		return "", fmt.Errorf("missing required argument `%s`", name)
	}
	return ctx.Args().Get(i), nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	return nil
}
