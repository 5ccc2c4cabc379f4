// Package ui  Setup for the FyGallery Application
package ui

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"fygallery/internal/gallery"
	"fygallery/internal/pipeline"
	"fygallery/internal/prefs"
	"fygallery/internal/service"
	"fygallery/internal/slideshow"
	"fygallery/internal/tagging"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/dustin/go-humanize"
)

const appID = "com.github.fygallery"

// Options are the command line settings of the GUI.
type Options struct {
	Dir         string
	Tier        string
	Overscan    int
	DBPath      string
	CacheDir    string
	Workers     int
	HistorySize int
	Shuffle     bool
	Interval    time.Duration
}

// parseOptions reads the GUI flags. Unset tier and overscan stay empty and
// -1 so stored preferences can fill them in.
func parseOptions(args []string) (Options, error) {
	var o Options
	fs := flag.NewFlagSet("fygallery", flag.ContinueOnError)
	fs.StringVar(&o.Tier, "tier", "", "Thumbnail density: small, medium or large.")
	fs.IntVar(&o.Overscan, "overscan", -1, "Extra rows rendered above and below the viewport.")
	fs.StringVar(&o.DBPath, "dbpath", "", "Directory for the tag and preference databases.")
	fs.StringVar(&o.CacheDir, "cache-dir", "", "Directory for generated thumbnails.")
	fs.IntVar(&o.Workers, "workers", runtime.NumCPU(), "Thumbnail generator workers. Min: 1.")
	fs.IntVar(&o.HistorySize, "history-size", 50, "Detail view history entries (0 to disable).")
	fs.BoolVar(&o.Shuffle, "shuffle", false, "Place newly found images in random order.")
	interval := fs.Float64("slideshow-interval", slideshow.DefaultInterval.Seconds(), "Slideshow interval in seconds. Min: 0.1.")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.Tier != "" {
		if _, ok := gallery.ParseTier(o.Tier); !ok {
			return o, fmt.Errorf("unknown tier %q", o.Tier)
		}
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.HistorySize < 0 {
		o.HistorySize = 0
	}
	if *interval < 0.1 {
		*interval = 0.1
	}
	o.Interval = time.Duration(*interval * float64(time.Second))
	if fs.NArg() > 0 {
		o.Dir = fs.Arg(0)
	}
	return o, nil
}

// resolveDir picks the directory to open: the argument, else the last
// directory, else the working directory.
func resolveDir(arg, last string) (string, error) {
	dir := arg
	if dir == "" && last != "" {
		if fi, err := os.Stat(last); err == nil && fi.IsDir() {
			dir = last
		}
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error while opening the directory: %w", err)
		}
		dir = wd
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("error while opening the directory '%s': %w", dir, err)
	}
	if !fi.IsDir() {
		dir = filepath.Dir(dir)
	}
	return filepath.Abs(dir)
}

// UI holds the main window widgets.
type UI struct {
	MainWin     fyne.Window
	mainModKey  fyne.KeyModifier
	statusLabel *widget.Label
	tierSelect  *widget.Select
	toolBar     *widget.Toolbar
}

// App represents the whole application with all its windows, widgets and functions
type App struct {
	app fyne.App
	UI  UI

	engine *gallery.Engine
	grid   *gridView
	detail *detailPanel
	loader *ImageLoader
	locate gallery.LocatorFunc

	Service *service.Service
	tagDB   *tagging.TagDB
	prefs   *prefs.Store
	thumbs  *pipeline.Generator
	player  *slideshow.Player
	cancel  context.CancelFunc

	logUIManager *LogUIManager
	dialogs      map[string]dialog.Dialog
	selection    gallery.Selection
	lastDetail   string
}

// threadLogger returns a logger safe to call from any goroutine.
func (a *App) threadLogger(prefix string) func(string) {
	return func(message string) {
		if a.logUIManager != nil {
			a.logUIManager.Logger(prefix)(message)
			return
		}
		log.Printf("EarlyLog %s: %s", prefix, message)
	}
}

// addLogMessage adds a message to the UI log display. UI goroutine only.
func (a *App) addLogMessage(message string) {
	if a.logUIManager != nil {
		a.logUIManager.AddLogMessage(message)
		return
	}
	log.Printf("LogUIManager not ready, console log: %s", message)
}

// --- engine handlers ---

func (a *App) handlers() gallery.Handlers {
	return gallery.Handlers{
		SelectionChanged: func(sel gallery.Selection) {
			a.selection = sel
			a.updateStatusBar()
		},
		Intent: a.handleIntent,
		Redraw: func() {
			if a.grid != nil {
				a.grid.sync()
			}
		},
		DetailChanged: a.onDetailChanged,
		DialogClosed:  a.onDialogClosed,
	}
}

func (a *App) handleIntent(in gallery.Intent) {
	switch in.Kind {
	case gallery.IntentBatchDelete:
		if !in.Confirmed {
			a.confirmDelete(in)
			return
		}
		a.apply(in)
	case gallery.IntentOpenItem, gallery.IntentSelectAll, gallery.IntentClearSelection:
		a.updateStatusBar()
	default:
		a.apply(in)
	}
}

// apply hands an intent to the service off the UI goroutine and shows the
// list it returns.
func (a *App) apply(in gallery.Intent) {
	a.addLogMessage(fmt.Sprintf("Applying %s to %d image(s)", in.Kind, max(len(in.IDs), len(in.Order))))
	go func() {
		items, err := a.Service.Apply(in)
		fyne.Do(func() {
			if err != nil {
				a.addLogMessage(fmt.Sprintf("%s: %v", in.Kind, err))
				dialog.ShowError(err, a.UI.MainWin)
			}
			a.setItems(items)
			a.refreshDetailInfo()
		})
	}()
}

// runService runs a service call off the UI goroutine, then reloads the view.
func (a *App) runService(done string, fn func() error) {
	go func() {
		err := fn()
		fyne.Do(func() {
			if err != nil {
				a.addLogMessage(fmt.Sprintf("%s failed: %v", done, err))
				dialog.ShowError(err, a.UI.MainWin)
			} else {
				a.addLogMessage(done)
			}
			a.reloadView()
			a.refreshDetailInfo()
		})
	}()
}

func (a *App) setItems(items []gallery.Item) {
	live := make(map[string]bool, len(items))
	for _, it := range items {
		live[it.ID] = true
	}
	a.loader.Retain(live)
	a.engine.SetItems(items)
	a.updateStatusBar()
}

// reloadView shows the service's current list again.
func (a *App) reloadView() {
	a.setItems(a.Service.Items())
}

func (a *App) confirmDelete(in gallery.Intent) {
	check := widget.NewCheck("Also delete the file(s) from disk", nil)
	msg := widget.NewLabel(fmt.Sprintf("Remove %d image(s) from the gallery?\nDeleting files can't be undone.", len(in.IDs)))
	d := dialog.NewCustomConfirm("Delete", "Delete", "Cancel", container.NewVBox(msg, check), func(ok bool) {
		if ok {
			a.apply(in.Confirm(check.Checked))
		}
	}, a.UI.MainWin)
	a.showDialog("delete", d)
}

// --- dialogs ---

// showDialog shows d and tracks it on the engine's dialog stack so Escape
// closes dialogs first.
func (a *App) showDialog(name string, d dialog.Dialog) {
	if _, open := a.dialogs[name]; open {
		return
	}
	a.dialogs[name] = d
	a.engine.PushDialog(name)
	a.player.Pause(true)
	d.SetOnClosed(func() {
		if _, open := a.dialogs[name]; open {
			delete(a.dialogs, name)
			a.engine.PopDialog()
		}
		a.player.ResumeAfterOperation()
	})
	d.Show()
}

// onDialogClosed hides a dialog the engine popped on Escape.
func (a *App) onDialogClosed(name string) {
	d, ok := a.dialogs[name]
	if !ok {
		return
	}
	delete(a.dialogs, name)
	d.Hide()
}

// --- actions ---

// targets are the ids toolbar actions apply to.
func (a *App) targets() []string {
	if a.selection.Mode == gallery.ModeActive && len(a.selection.IDs) > 0 {
		return append([]string(nil), a.selection.IDs...)
	}
	if item, ok := a.engine.Detail(); ok {
		return []string{item.ID}
	}
	return nil
}

func (a *App) setTier(t gallery.Tier) {
	a.engine.SetTier(t)
	if a.UI.tierSelect != nil && a.UI.tierSelect.Selected != t.String() {
		a.UI.tierSelect.SetSelected(t.String())
	}
	if err := a.prefs.SetString(prefs.KeyDensityTier, t.String()); err != nil {
		a.addLogMessage(fmt.Sprintf("Could not save density: %v", err))
	}
	a.updateStatusBar()
}

// moveCurrent moves the single target delta places in the custom order.
func (a *App) moveCurrent(delta int) {
	ids := a.targets()
	if len(ids) != 1 {
		a.addLogMessage("Select exactly one image to move.")
		return
	}
	from, ok := a.engine.IndexOf(ids[0])
	if !ok {
		return
	}
	a.engine.RequestReorder(from, from+delta)
}

func (a *App) regenerateTargets() {
	ids := a.targets()
	if len(ids) == 0 {
		a.addLogMessage("Nothing selected to regenerate.")
		return
	}
	a.runService(fmt.Sprintf("Queued %d thumbnail(s)", len(ids)), func() error {
		return a.Service.Regenerate(ids)
	})
}

func (a *App) cleanDatabase() {
	go func() {
		items, tags, err := a.Service.CleanDatabase()
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, a.UI.MainWin)
				return
			}
			a.addLogMessage(fmt.Sprintf("Cleaned %d stale image(s) and %d orphaned tag(s).", items, tags))
		})
	}()
}

func (a *App) applyFilter(desc string, fn func() ([]gallery.Item, error)) {
	go func() {
		items, err := fn()
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, a.UI.MainWin)
				return
			}
			a.addLogMessage(fmt.Sprintf("Filter %s: %d image(s)", desc, len(items)))
			a.engine.CloseDetail()
			a.setItems(items)
		})
	}()
}

func (a *App) clearFilter() {
	a.setItems(a.Service.ClearFilter())
	a.addLogMessage("Filter cleared.")
}

func (a *App) loadDirectory(dir string) {
	items, err := a.Service.Load(dir)
	fyne.Do(func() {
		if err != nil {
			a.addLogMessage(err.Error())
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		a.engine.CloseDetail()
		a.setItems(items)
		a.UI.MainWin.SetTitle(fmt.Sprintf("FyGallery - %s", filepath.Base(dir)))
		if err := a.prefs.SetString(prefs.KeyLastDirectory, dir); err != nil {
			a.addLogMessage(fmt.Sprintf("Could not save last directory: %v", err))
		}
	})
}

func (a *App) openFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			dialog.ShowError(err, a.UI.MainWin)
			return
		}
		if uri != nil {
			go a.loadDirectory(uri.Path())
		}
	}, a.UI.MainWin)
}

func (a *App) rescan() {
	go func() {
		items, err := a.Service.Reload()
		fyne.Do(func() {
			if err != nil {
				a.addLogMessage(err.Error())
				return
			}
			a.setItems(items)
		})
	}()
}

// --- status bar ---

func (a *App) updateStatusBar() {
	if a.UI.statusLabel == nil {
		return
	}
	text := fmt.Sprintf("%s images", humanize.Comma(int64(a.engine.Len())))
	if a.selection.Mode == gallery.ModeActive {
		text += fmt.Sprintf(" | %s selected", humanize.Comma(int64(len(a.selection.IDs))))
	}
	if f := a.Service.Filter(); f != "" {
		text += " | Filter: " + f
	}
	if a.thumbs != nil {
		if n := a.thumbs.Pending(); n > 0 {
			text += fmt.Sprintf(" | %s thumbnails queued", humanize.Comma(int64(n)))
		}
	}
	a.UI.statusLabel.SetText(text)
}

// updateTimer refreshes the status bar while thumbnails are generated.
func (a *App) updateTimer(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fyne.Do(a.updateStatusBar)
		}
	}
}

// cellCaption is the size caption under a cell.
func (a *App) cellCaption(id string) string {
	item, ok := a.engine.Item(id)
	if !ok || item.ByteSize <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(item.ByteSize))
}

// --- layout ---

func (a *App) buildStatusBar() fyne.CanvasObject {
	a.UI.statusLabel = widget.NewLabel("Ready")
	logLabel := widget.NewLabel("")
	logLabel.Truncation = fyne.TextTruncateEllipsis
	up := widget.NewButtonWithIcon("", theme.MoveUpIcon(), nil)
	down := widget.NewButtonWithIcon("", theme.MoveDownIcon(), nil)
	a.logUIManager = NewLogUIManager(logLabel, up, down, DefaultMaxLogMessages)
	a.logUIManager.UpdateLogDisplay()

	return container.NewVBox(
		widget.NewSeparator(),
		container.NewBorder(nil, nil, a.UI.statusLabel, container.NewHBox(up, down), logLabel),
	)
}

func (a *App) buildToolbar() fyne.CanvasObject {
	a.UI.toolBar = widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), a.openFolder),
		widget.NewToolbarAction(theme.ViewRefreshIcon(), func() { a.engine.KeyPress(gallery.KeyRefresh) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.CheckButtonCheckedIcon(), func() { a.engine.SelectAll() }),
		widget.NewToolbarAction(theme.CheckButtonIcon(), func() { a.engine.ClearSelection() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentCreateIcon(), a.showTagDialog),
		widget.NewToolbarAction(theme.ContentAddIcon(), func() { a.engine.RequestFavorite() }),
		widget.NewToolbarAction(theme.DeleteIcon(), func() { a.engine.RequestDelete() }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.SearchIcon(), a.showFilterDialog),
		widget.NewToolbarAction(theme.ListIcon(), a.showTagManager),
		widget.NewToolbarSpacer(),
		widget.NewToolbarAction(theme.HelpIcon(), a.showShortcuts),
	)
	a.UI.tierSelect = widget.NewSelect([]string{
		gallery.TierSmall.String(), gallery.TierMedium.String(), gallery.TierLarge.String(),
	}, func(s string) {
		if t, ok := gallery.ParseTier(s); ok && t != a.engine.Tier() {
			a.setTier(t)
		}
	})
	a.UI.tierSelect.SetSelected(a.engine.Tier().String())
	return container.NewBorder(nil, nil, nil, a.UI.tierSelect, a.UI.toolBar)
}

func (a *App) buildMainMenu() *fyne.MainMenu {
	return fyne.NewMainMenu(
		fyne.NewMenu("File",
			fyne.NewMenuItem("Open Folder...", a.openFolder),
			fyne.NewMenuItem("Rescan", a.rescan),
		),
		fyne.NewMenu("Edit",
			fyne.NewMenuItem("Select All", func() { a.engine.SelectAll() }),
			fyne.NewMenuItem("Clear Selection", func() { a.engine.ClearSelection() }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Add Tags...", a.showTagDialog),
			fyne.NewMenuItem("Remove Tag...", a.showRemoveTagDialog),
			fyne.NewMenuItem("Toggle Favourite", func() { a.engine.RequestFavorite() }),
			fyne.NewMenuItem("Delete...", func() { a.engine.RequestDelete() }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Move Earlier", func() { a.moveCurrent(-1) }),
			fyne.NewMenuItem("Move Later", func() { a.moveCurrent(1) }),
		),
		fyne.NewMenu("View",
			fyne.NewMenuItem("Small Thumbnails", func() { a.setTier(gallery.TierSmall) }),
			fyne.NewMenuItem("Medium Thumbnails", func() { a.setTier(gallery.TierMedium) }),
			fyne.NewMenuItem("Large Thumbnails", func() { a.setTier(gallery.TierLarge) }),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Filter...", a.showFilterDialog),
			fyne.NewMenuItem("Clear Filter", a.clearFilter),
		),
		fyne.NewMenu("Tools",
			fyne.NewMenuItem("Manage Tags...", a.showTagManager),
			fyne.NewMenuItem("Regenerate Thumbnails", a.regenerateTargets),
			fyne.NewMenuItem("Clean Database", a.cleanDatabase),
		),
		fyne.NewMenu("Help",
			fyne.NewMenuItem("Keyboard Shortcuts", a.showShortcuts),
			fyne.NewMenuItem("About", a.showAbout),
		),
	)
}

func (a *App) buildMainUI() fyne.CanvasObject {
	a.UI.MainWin.SetMaster()
	// set main mod key to super on darwin hosts, else set it to ctrl
	if runtime.GOOS == "darwin" {
		a.UI.mainModKey = fyne.KeyModifierSuper
	} else {
		a.UI.mainModKey = fyne.KeyModifierControl
	}
	status := a.buildStatusBar()
	toolbar := a.buildToolbar()

	a.grid = newGridView(a.engine, a.loader, a.locate, a.engine.ClickID, a.cellCaption)
	a.detail = a.buildDetailPanel()

	a.UI.MainWin.SetMainMenu(a.buildMainMenu())
	a.buildKeyboardShortcuts()

	return container.NewBorder(
		toolbar,
		status,
		nil,
		nil,
		container.NewStack(a.grid.root, a.detail.root),
	)
}

// openStores opens the tag and preference databases in dbDir.
func openStores(dbDir string, logger tagging.LoggerFunc) (*tagging.TagDB, *prefs.Store, error) {
	if dbDir == "" {
		dir, err := tagging.DefaultDir()
		if err != nil {
			logger(err.Error())
		}
		dbDir = dir
	}
	if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	tdb, err := tagging.NewTagDB(dbDir, logger)
	if err != nil {
		return nil, nil, err
	}
	ps, err := prefs.Open(dbDir)
	if err != nil {
		return nil, nil, errors.Join(err, tdb.Close())
	}
	return tdb, ps, nil
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "fygallery", "thumbnails")
}

// CreateApplication is the GUI entrypoint
func CreateApplication() {
	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		return
	}

	a := app.NewWithID(appID)
	a.Settings().SetTheme(NewCompactTheme(a.Settings().Theme()))

	ui := &App{app: a, dialogs: make(map[string]dialog.Dialog)}
	ui.UI.MainWin = a.NewWindow("FyGallery")

	ui.tagDB, ui.prefs, err = openStores(opts.DBPath, ui.threadLogger("tags"))
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}

	dir, err := resolveDir(opts.Dir, ui.prefs.StringWithFallback(prefs.KeyLastDirectory, ""))
	if err != nil {
		fmt.Println(err)
		return
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	ui.thumbs, err = pipeline.New(cacheDir, 0, func(ev gallery.ProgressEvent) {
		fyne.Do(func() { ui.engine.HandleProgress(ev) })
	}, ui.threadLogger("thumbnails"))
	if err != nil {
		log.Fatalf("Failed to initialize thumbnail cache: %v", err)
	}

	ui.Service = service.NewService(ui.tagDB, nil, ui.threadLogger("scan"))
	ui.Service.Thumbs = ui.thumbs
	ui.Service.Shuffle = opts.Shuffle

	cfg := gallery.DefaultConfig()
	cfg.HistorySize = opts.HistorySize
	cfg.Overscan = opts.Overscan
	if cfg.Overscan < 0 {
		cfg.Overscan = ui.prefs.IntWithFallback(prefs.KeyOverscan, gallery.DefaultConfig().Overscan)
	}
	cfg.Locator = ui.thumbs.Locator(ui.Service.Path)
	ui.locate = cfg.Locator
	ui.engine = gallery.NewEngine(cfg, ui.handlers(), ui.threadLogger("gallery"))

	tierName := opts.Tier
	if tierName == "" {
		tierName = ui.prefs.StringWithFallback(prefs.KeyDensityTier, gallery.TierMedium.String())
	}
	tier, _ := gallery.ParseTier(tierName)
	ui.engine.SetTier(tier)

	ui.player = slideshow.New(opts.Interval, func() { fyne.Do(ui.advanceSlideshow) })

	ui.loader = NewImageLoader(DefaultLoaderWorkers, 0, ui.threadLogger("loader"))
	ui.UI.MainWin.SetContent(ui.buildMainUI())

	ctx, cancel := context.WithCancel(context.Background())
	ui.cancel = cancel
	ui.thumbs.Start(ctx, opts.Workers)
	go ui.updateTimer(ctx)
	go ui.player.Run(ctx)

	ui.UI.MainWin.SetCloseIntercept(func() {
		log.Println("Stopping thumbnail workers...")
		ui.cancel()
		ui.thumbs.Shutdown()
		log.Println("Closing databases...")
		if err := ui.tagDB.Close(); err != nil {
			log.Printf("Error closing tag database: %v", err)
		}
		if err := ui.prefs.Close(); err != nil {
			log.Printf("Error closing preferences: %v", err)
		}
		ui.UI.MainWin.Close()
	})

	go ui.loadDirectory(dir)

	ui.UI.MainWin.Resize(fyne.NewSize(1200, 800))
	ui.UI.MainWin.CenterOnScreen()
	ui.UI.MainWin.ShowAndRun()
}
