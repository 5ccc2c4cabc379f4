package main

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"fygallery/internal/gallery"
	"fygallery/internal/pipeline"
	"fygallery/internal/prefs"
	"fygallery/internal/scan"
	"fygallery/internal/service"
	"fygallery/internal/tagging"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// noStore marks commands that run without opening the databases.
const noStore = "no-store"

func cliLogger(msg string) {
	log.Printf("[fygallery-cli] %s", msg)
}

// Stores are the persistent collaborators a command may use.
type Stores struct {
	Service *service.Service
	TagDB   *tagging.TagDB
	Prefs   *prefs.Store
}

// Close closes the databases.
func (s *Stores) Close() error {
	var errs []error
	if s.TagDB != nil {
		errs = append(errs, s.TagDB.Close())
	}
	if s.Prefs != nil {
		errs = append(errs, s.Prefs.Close())
	}
	return errors.Join(errs...)
}

// OpenFunc opens the stores under dbPath. Tests inject their own.
type OpenFunc func(dbPath string, logger tagging.LoggerFunc) (*Stores, error)

// openStores is the production OpenFunc.
func openStores(dbPath string, logger tagging.LoggerFunc) (*Stores, error) {
	if dbPath == "" {
		dir, err := tagging.DefaultDir()
		if err != nil {
			return nil, err
		}
		dbPath = dir
	}
	if err := os.MkdirAll(dbPath, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	tdb, err := tagging.NewTagDB(dbPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag DB: %w", err)
	}
	ps, err := prefs.Open(dbPath)
	if err != nil {
		return nil, errors.Join(err, tdb.Close())
	}
	return &Stores{
		Service: service.NewService(tdb, nil, func(m string) { logger(m) }),
		TagDB:   tdb,
		Prefs:   ps,
	}, nil
}

// NewRootCmd creates the root command for the CLI application.
// open is responsible for initializing the stores, which lets tests use
// temporary databases.
func NewRootCmd(open OpenFunc) *cobra.Command {
	var (
		dbPathFlag string
		stores     *Stores
	)

	rootCmd := &cobra.Command{
		Use:           "fygallery-cli",
		Short:         "FyGallery CLI - inspect the gallery grid and manage image tags",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[noStore] != "" {
				return nil
			}
			var err error
			stores, err = open(dbPathFlag, cliLogger)
			if err != nil {
				return fmt.Errorf("failed to initialize stores: %w", err)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dbPathFlag, "dbpath", "", "Directory holding the tag and preference databases")

	storesFn := func() *Stores { return stores }

	rootCmd.AddCommand(
		newScanCmd(),
		newLayoutCmd(),
		newReplayCmd(storesFn),
		newTagCmd(storesFn),
		newUntagCmd(storesFn),
		newTagsCmd(storesFn),
		newFavoriteCmd(storesFn),
		newFavoritesCmd(storesFn),
		newCleanCmd(storesFn),
		newPrefsCmd(storesFn),
		newThumbsCmd(),
	)

	// Stores are closed after every command, including failed ones.
	closeStores := func() {
		if stores != nil {
			if err := stores.Close(); err != nil {
				cliLogger(err.Error())
			}
			stores = nil
		}
	}
	closeAfterRun(rootCmd, closeStores)
	return rootCmd
}

func closeAfterRun(cmd *cobra.Command, closeFn func()) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(c *cobra.Command, args []string) error {
			defer closeFn()
			return run(c, args)
		}
	}
	for _, sub := range cmd.Commands() {
		closeAfterRun(sub, closeFn)
	}
}

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "scan [directory]",
		Short:       "List the images of a directory with their content ids",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			items, err := scan.Run(dir, cliLogger)
			if err != nil {
				return err
			}
			scan.Sort(items, scan.SortByPath)
			for _, it := range items {
				cmd.Printf("%s  %dx%d  %s  %s\n", shortID(it.ID), it.Width, it.Height, humanize.Bytes(uint64(it.ByteSize)), it.Path)
			}
			cmd.Printf("%s images\n", humanize.Comma(int64(len(items))))
			return nil
		},
	}
}

func newLayoutCmd() *cobra.Command {
	var (
		width int
		tier  string
		items int
	)
	cmd := &cobra.Command{
		Use:         "layout",
		Short:       "Show the grid geometry for a container width",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			t, ok := gallery.ParseTier(tier)
			if !ok {
				return fmt.Errorf("unknown tier %q (want small, medium or large)", tier)
			}
			l := gallery.DefaultConfig().Layout(width, t)
			rows := l.RowCount(items)
			last := 0
			if items > 0 {
				last = items - (rows-1)*l.ColumnCount
			}
			cmd.Printf("width:      %d\n", l.ContainerWidth)
			cmd.Printf("tier:       %s (min %d)\n", t, l.MinItemSize)
			cmd.Printf("columns:    %d\n", l.ColumnCount)
			cmd.Printf("item size:  %d\n", l.ItemSize)
			cmd.Printf("row height: %d\n", l.RowHeight)
			cmd.Printf("rows:       %d\n", rows)
			cmd.Printf("last row:   %d\n", last)
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 1024, "Container width in pixels")
	cmd.Flags().StringVar(&tier, "tier", gallery.TierMedium.String(), "Density tier (small, medium, large)")
	cmd.Flags().IntVar(&items, "items", 0, "Number of items")
	return cmd
}

func newTagCmd(stores func() *Stores) *cobra.Command {
	return &cobra.Command{
		Use:   "tag [id] [tag...]",
		Short: "Add tags to an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := cleanTags(args[1:])
			if len(tags) == 0 {
				return errors.New("no tags given")
			}
			if err := stores().TagDB.AddTagsToItems([]string{args[0]}, tags); err != nil {
				return err
			}
			cmd.Printf("Tagged %s with %s\n", shortID(args[0]), strings.Join(tags, ", "))
			return nil
		},
	}
}

func newUntagCmd(stores func() *Stores) *cobra.Command {
	return &cobra.Command{
		Use:   "untag [id] [tag...]",
		Short: "Remove tags from an item",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tags := cleanTags(args[1:])
			if err := stores().Service.RemoveTags(args[0], tags); err != nil {
				return err
			}
			cmd.Printf("Removed %s from %s\n", strings.Join(tags, ", "), shortID(args[0]))
			return nil
		},
	}
}

func newTagsCmd(stores func() *Stores) *cobra.Command {
	return &cobra.Command{
		Use:   "tags [id]",
		Short: "List the tags of an item, or every tag with its count",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				tags, err := stores().TagDB.GetTags(args[0])
				if err != nil {
					return err
				}
				if len(tags) == 0 {
					cmd.Printf("No tags for %s\n", shortID(args[0]))
					return nil
				}
				cmd.Println(strings.Join(tags, ", "))
				return nil
			}
			all, err := stores().Service.ListAllTags()
			if err != nil {
				return err
			}
			if len(all) == 0 {
				cmd.Println("No tags found.")
				return nil
			}
			for _, t := range all {
				cmd.Printf("%s (%d)\n", t.Name, t.Count)
			}
			return nil
		},
	}
}

func newFavoriteCmd(stores func() *Stores) *cobra.Command {
	return &cobra.Command{
		Use:   "favorite [id...]",
		Short: "Toggle the favourite flag of items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := stores().TagDB.ToggleFavorite(args)
			if err != nil {
				return err
			}
			state := "Unstarred"
			if on {
				state = "Starred"
			}
			cmd.Printf("%s %d items\n", state, len(args))
			return nil
		},
	}
}

func newFavoritesCmd(stores func() *Stores) *cobra.Command {
	return &cobra.Command{
		Use:   "favorites",
		Short: "List favourite item ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := stores().TagDB.Favorites()
			if err != nil {
				return err
			}
			for _, id := range ids {
				cmd.Println(id)
			}
			return nil
		},
	}
}

func newCleanCmd(stores func() *Stores) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [directory]",
		Short: "Remove tags and favourites of items no longer in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			svc := stores().Service
			if _, err := svc.Load(dir); err != nil {
				return err
			}
			items, tags, err := svc.CleanDatabase()
			if err != nil {
				return err
			}
			cmd.Printf("Cleaned %d items and %d orphaned tags\n", items, tags)
			return nil
		},
	}
}

func newPrefsCmd(stores func() *Stores) *cobra.Command {
	prefsCmd := &cobra.Command{
		Use:   "prefs",
		Short: "Read and write stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := stores().Prefs.All()
			if err != nil {
				return err
			}
			for _, k := range slices.Sorted(maps.Keys(all)) {
				cmd.Printf("%s=%s\n", k, all[k])
			}
			return nil
		},
	}
	prefsCmd.AddCommand(
		&cobra.Command{
			Use:   "get [key]",
			Short: "Print a preference",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := stores().Prefs.GetString(args[0])
				if err != nil {
					return err
				}
				cmd.Println(v)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set [key] [value]",
			Short: "Store a preference",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if args[0] == prefs.KeyDensityTier {
					if _, ok := gallery.ParseTier(args[1]); !ok {
						return fmt.Errorf("unknown tier %q", args[1])
					}
				}
				return stores().Prefs.SetString(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "delete [key]",
			Short: "Remove a preference",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return stores().Prefs.Delete(args[0])
			},
		},
	)
	return prefsCmd
}

func newThumbsCmd() *cobra.Command {
	var (
		cacheDir string
		size     uint
		workers  int
		force    bool
	)
	cmd := &cobra.Command{
		Use:         "thumbs [directory]",
		Short:       "Generate missing thumbnails for a directory",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			if cacheDir == "" {
				base, err := os.UserCacheDir()
				if err != nil {
					return err
				}
				cacheDir = filepath.Join(base, "fygallery", "thumbnails")
			}
			items, err := scan.Run(dir, cliLogger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			sink := func(ev gallery.ProgressEvent) {
				mu.Lock()
				defer mu.Unlock()
				switch ev.Stage {
				case gallery.StageComplete:
					fmt.Fprintf(out, "done  %s\n", shortID(ev.ItemID))
				case gallery.StageError:
					fmt.Fprintf(out, "error %s: %s\n", shortID(ev.ItemID), ev.Message)
				}
			}
			gen, err := pipeline.New(cacheDir, size, sink, cliLogger)
			if err != nil {
				return err
			}

			queued := 0
			if force {
				for _, it := range items {
					if err := gen.Regenerate(it.ID, it.Path); err != nil {
						return err
					}
				}
				queued = len(items)
			} else {
				jobs := gen.Missing(items)
				if err := gen.Enqueue(jobs...); err != nil {
					return err
				}
				queued = len(jobs)
			}
			gen.Start(cmd.Context(), workers)
			gen.Shutdown()
			cmd.Printf("Processed %d of %d images into %s\n", queued, len(items), cacheDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Thumbnail cache directory")
	cmd.Flags().UintVar(&size, "size", pipeline.DefaultSize, "Thumbnail bounding box in pixels")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU(), "Number of thumbnail workers")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate thumbnails that already exist")
	return cmd
}

func cleanTags(raw []string) []string {
	var out []string
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func main() {
	rootCmd := NewRootCmd(openStores)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
