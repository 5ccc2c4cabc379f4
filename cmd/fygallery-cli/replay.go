package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fygallery/internal/gallery"
	"fygallery/internal/service"

	"github.com/spf13/cobra"
)

var replayKeys = map[string]gallery.Key{
	"escape":    gallery.KeyEscape,
	"esc":       gallery.KeyEscape,
	"delete":    gallery.KeyDelete,
	"selectall": gallery.KeySelectAll,
	"refresh":   gallery.KeyRefresh,
}

func newReplayCmd(stores func() *Stores) *cobra.Command {
	var (
		dir         string
		items       int
		overscan    int
		deleteFiles bool
	)
	cmd := &cobra.Command{
		Use:   "replay [script|-]",
		Short: "Drive the gallery engine from a script and print what it does",
		Long: `Replay reads one command per line and feeds it to a gallery engine.

  resize W H            set the container width and viewport height
  tier NAME             small, medium or large
  scroll Y              set the scroll offset
  overscan N            set the overscan rows
  click I [ctrl] [shift]
  key NAME              escape, delete, selectall, refresh
  progress STAGE ID     generating, complete or error
  load ID ok|fail       complete a pending image load
  refresh | selectall | clear
  tag TAG...            request a tag for the current targets
  favorite              request a favourite toggle
  move FROM TO          request a reorder
  open ID | close | nav STEP
  show [cells]          print the engine state
  intents               print every intent raised so far

IDs may be written as @INDEX. With --dir the raised intents are applied to
the tag database and the resulting list is fed back to the engine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			if args[0] == "-" {
				in = cmd.InOrStdin()
			} else {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			r := newReplayer(cmd.OutOrStdout(), overscan)
			r.deleteFiles = deleteFiles
			if dir != "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				r.svc = stores().Service
				list, err := r.svc.Load(abs)
				if err != nil {
					return err
				}
				r.engine.SetItems(list)
			} else {
				r.engine.SetItems(syntheticItems(items))
			}
			return r.run(in)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Load the items of a directory")
	cmd.Flags().IntVar(&items, "items", 100, "Number of synthetic items when --dir is not given")
	cmd.Flags().IntVar(&overscan, "overscan", gallery.DefaultConfig().Overscan, "Rows rendered above and below the viewport")
	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Delete intents also remove the files (with --dir)")
	return cmd
}

func syntheticItems(n int) []gallery.Item {
	out := make([]gallery.Item, n)
	for i := range out {
		out[i] = gallery.Item{
			ID:       fmt.Sprintf("item-%03d", i),
			Width:    640,
			Height:   480,
			ByteSize: 64 << 10,
			Path:     fmt.Sprintf("item-%03d.jpg", i),
		}
	}
	return out
}

// replayer feeds script lines to an engine.
type replayer struct {
	engine      *gallery.Engine
	svc         *service.Service
	out         io.Writer
	deleteFiles bool

	intents []gallery.Intent
	pending []gallery.Intent
}

func newReplayer(out io.Writer, overscan int) *replayer {
	r := &replayer{out: out}
	cfg := gallery.DefaultConfig()
	cfg.Overscan = overscan
	r.engine = gallery.NewEngine(cfg, gallery.Handlers{
		Intent: func(in gallery.Intent) {
			fmt.Fprintf(r.out, "intent: %s\n", in)
			r.intents = append(r.intents, in)
			r.pending = append(r.pending, in)
		},
		DetailChanged: func(id string) {
			if id == "" {
				fmt.Fprintln(r.out, "detail: closed")
				return
			}
			fmt.Fprintf(r.out, "detail: %s\n", id)
		},
		DialogClosed: func(name string) {
			fmt.Fprintf(r.out, "dialog closed: %s\n", name)
		},
	}, cliLogger)
	return r
}

func (r *replayer) run(in io.Reader) error {
	sc := bufio.NewScanner(in)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := r.exec(strings.Fields(line)); err != nil {
			return fmt.Errorf("line %d: %q: %w", n, line, err)
		}
		r.flush()
		// Render pass: visible cells get asset state, as in the grid widget.
		r.engine.VisibleCells()
	}
	return sc.Err()
}

// flush applies the intents raised by the last line. The engine learns the
// outcome only through SetItems.
func (r *replayer) flush() {
	pending := r.pending
	r.pending = nil
	if r.svc == nil {
		return
	}
	for _, in := range pending {
		switch in.Kind {
		case gallery.IntentBatchDelete, gallery.IntentBatchTag, gallery.IntentToggleFavorite, gallery.IntentReorder:
		default:
			continue
		}
		if in.Kind == gallery.IntentBatchDelete && !in.Confirmed {
			in = in.Confirm(r.deleteFiles)
		}
		items, err := r.svc.Apply(in)
		if err != nil {
			fmt.Fprintf(r.out, "apply %s: %v\n", in.Kind, err)
		}
		r.engine.SetItems(items)
	}
}

var errUsage = errors.New("wrong number of arguments")

func (r *replayer) exec(f []string) error {
	verb, args := f[0], f[1:]
	want := func(n int) error {
		if len(args) != n {
			return errUsage
		}
		return nil
	}

	switch verb {
	case "resize":
		if err := want(2); err != nil {
			return err
		}
		w, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		h, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return err
		}
		r.engine.Resize(w, h)
	case "tier":
		if err := want(1); err != nil {
			return err
		}
		t, ok := gallery.ParseTier(args[0])
		if !ok {
			return fmt.Errorf("unknown tier %q", args[0])
		}
		r.engine.SetTier(t)
	case "scroll":
		if err := want(1); err != nil {
			return err
		}
		y, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return err
		}
		r.engine.Scroll(y)
	case "overscan":
		if err := want(1); err != nil {
			return err
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		r.engine.SetOverscan(n)
	case "click":
		if len(args) < 1 {
			return errUsage
		}
		i, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		var mods gallery.Modifiers
		for _, m := range args[1:] {
			switch m {
			case "ctrl", "cmd":
				mods.Ctrl = true
			case "shift":
				mods.Shift = true
			default:
				return fmt.Errorf("unknown modifier %q", m)
			}
		}
		r.engine.Click(i, mods)
	case "key":
		if err := want(1); err != nil {
			return err
		}
		k, ok := replayKeys[args[0]]
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		if !r.engine.KeyPress(k) {
			fmt.Fprintf(r.out, "key %s: unhandled\n", args[0])
		}
	case "progress":
		if err := want(2); err != nil {
			return err
		}
		id, err := r.resolve(args[1])
		if err != nil {
			return err
		}
		if !r.engine.HandleProgress(gallery.ProgressEvent{Stage: args[0], ItemID: id}) {
			fmt.Fprintf(r.out, "progress %s %s: ignored\n", args[0], id)
		}
	case "load":
		if err := want(2); err != nil {
			return err
		}
		id, err := r.resolve(args[0])
		if err != nil {
			return err
		}
		return r.load(id, args[1])
	case "refresh":
		r.engine.RefreshAll()
	case "selectall":
		r.engine.SelectAll()
	case "clear":
		r.engine.ClearSelection()
	case "tag":
		if len(args) == 0 {
			return errUsage
		}
		if !r.engine.RequestTag(args) {
			fmt.Fprintln(r.out, "tag: nothing to tag")
		}
	case "favorite":
		if !r.engine.RequestFavorite() {
			fmt.Fprintln(r.out, "favorite: nothing to star")
		}
	case "move":
		if err := want(2); err != nil {
			return err
		}
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return err
		}
		if !r.engine.RequestReorder(from, to) {
			fmt.Fprintln(r.out, "move: ignored")
		}
	case "open":
		if err := want(1); err != nil {
			return err
		}
		id, err := r.resolve(args[0])
		if err != nil {
			return err
		}
		r.engine.OpenDetail(id)
	case "close":
		r.engine.CloseDetail()
	case "nav":
		if err := want(1); err != nil {
			return err
		}
		step, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		r.engine.NavigateDetail(step)
	case "show":
		r.show(len(args) > 0 && args[0] == "cells")
	case "intents":
		for i, in := range r.intents {
			fmt.Fprintf(r.out, "%3d %s\n", i+1, in)
		}
	default:
		return fmt.Errorf("unknown command %q", verb)
	}
	return nil
}

// resolve turns @INDEX into the id at that position.
func (r *replayer) resolve(ref string) (string, error) {
	if !strings.HasPrefix(ref, "@") {
		return ref, nil
	}
	i, err := strconv.Atoi(ref[1:])
	if err != nil {
		return "", err
	}
	items := r.engine.Items()
	if i < 0 || i >= len(items) {
		return "", fmt.Errorf("index %d out of range", i)
	}
	return items[i].ID, nil
}

func (r *replayer) load(id, outcome string) error {
	token, src, ok := r.engine.BeginLoad(id)
	if !ok {
		fmt.Fprintf(r.out, "load %s: not pending\n", id)
		return nil
	}
	var accepted bool
	switch outcome {
	case "ok":
		accepted = r.engine.LoadSucceeded(id, token, src)
	case "fail":
		accepted = r.engine.LoadFailed(id, token, src)
	default:
		return fmt.Errorf("unknown outcome %q", outcome)
	}
	if !accepted {
		fmt.Fprintf(r.out, "load %s: stale\n", id)
	}
	return nil
}

func (r *replayer) show(cells bool) {
	e := r.engine
	l := e.Layout()
	fmt.Fprintf(r.out, "layout: columns=%d item=%d row=%d rows=%d height=%.0f\n",
		l.ColumnCount, l.ItemSize, l.RowHeight, e.TotalRows(), e.ContentHeight())

	rows := e.VisibleRows()
	if len(rows) == 0 {
		fmt.Fprintln(r.out, "window: empty")
	} else {
		fmt.Fprintf(r.out, "window: rows %d-%d\n", rows[0].RowIndex, rows[len(rows)-1].RowIndex)
	}

	placed := e.VisibleCells()
	if cells {
		for _, pc := range placed {
			mark := ""
			if pc.Selected {
				mark = " selected"
			}
			if pc.Busy {
				mark += " busy"
			}
			fmt.Fprintf(r.out, "  %s %s token=%d src=%s%s\n", shortID(pc.ID), pc.Mode, pc.Token, pc.Source, mark)
		}
	}

	sel := e.Selection()
	fmt.Fprintf(r.out, "selection: mode=%s count=%d anchor=%d\n", sel.Mode, len(sel.IDs), sel.AnchorIndex)
	if it, ok := e.Detail(); ok {
		fmt.Fprintf(r.out, "detail: %s\n", it.ID)
	}
	st := e.Stats()
	fmt.Fprintf(r.out, "stats: layout=%d remeasure=%d rows=%d assets=%d selection=%d ignored=%d\n",
		st.LayoutComputes, st.Remeasures, st.RowComputes, st.AssetUpdates, st.SelectionUpdates, st.IgnoredEvents)
}
