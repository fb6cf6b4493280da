package ui

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dastanaron/bookmark-transfer/internal/config"
	"github.com/dastanaron/bookmark-transfer/internal/format"
	"github.com/dastanaron/bookmark-transfer/internal/models"
	"github.com/dastanaron/bookmark-transfer/internal/normalize"
	"github.com/dastanaron/bookmark-transfer/internal/service"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	ModeNormal = 1
	ModeSearch = 2
	ModeForm   = 3
	ModeModal  = 4
)

const (
	markChecked   = "☑ "
	markUnchecked = "☐ "
	iconFolder    = "📁 "
	iconBookmark  = "🔖 "
)

// App is the terminal bookmark browser. Checked nodes form the export selection.
type App struct {
	app    *tview.Application
	tree   *tview.TreeView
	detail *tview.TextView
	search *tview.InputField
	status *tview.TextView
	pages  *tview.Pages
	mode   uint8

	ctx    context.Context
	svc    *service.BookmarkService
	cfg    *config.Config
	logger *slog.Logger

	roots    []models.BookmarkNode // reserved roots of the last loaded tree
	byID     map[string]*models.BookmarkNode
	selected map[string]bool
}

// NewApp creates a new application instance
func NewApp(ctx context.Context, svc *service.BookmarkService, cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		app:      tview.NewApplication(),
		tree:     tview.NewTreeView(),
		detail:   tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		search:   tview.NewInputField().SetLabel("Search: "),
		status:   tview.NewTextView().SetDynamicColors(true),
		pages:    tview.NewPages(),
		mode:     ModeNormal,
		ctx:      ctx,
		svc:      svc,
		cfg:      cfg,
		logger:   logger,
		byID:     make(map[string]*models.BookmarkNode),
		selected: make(map[string]bool),
	}
}

// Run starts the application
func (a *App) Run() error {
	a.tree.SetBorder(true).SetTitle("Bookmarks")
	a.detail.SetBorder(true).SetTitle("Details")

	cols := tview.NewFlex().
		AddItem(a.tree, 0, 3, true).
		AddItem(a.detail, 0, 1, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.search, 1, 0, false).
		AddItem(cols, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.pages.AddPage("main", main, true, true)

	if err := a.reload(); err != nil {
		return err
	}

	a.search.SetChangedFunc(a.onSearchChange)
	a.search.SetDoneFunc(a.onSearchDone)
	a.tree.SetChangedFunc(a.onSelect)

	a.app.SetRoot(a.pages, true)
	a.app.SetInputCapture(a.globalInput)
	a.app.SetFocus(a.tree)
	return a.app.Run()
}

// reload fetches the tree from the store and redraws it.
func (a *App) reload() error {
	tree, err := a.svc.Tree(a.ctx)
	if err != nil {
		return err
	}

	a.roots = a.roots[:0]
	if len(tree) > 0 {
		for _, child := range tree[0].Children {
			if models.IsReservedRoot(child.ID) {
				a.roots = append(a.roots, child)
			}
		}
	}

	a.byID = make(map[string]*models.BookmarkNode)
	index(a.byID, a.roots)
	for id := range a.selected {
		if _, ok := a.byID[id]; !ok {
			delete(a.selected, id)
		}
	}

	a.fillTree()
	return nil
}

func index(byID map[string]*models.BookmarkNode, nodes []models.BookmarkNode) {
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
		index(byID, nodes[i].Children)
	}
}

func (a *App) fillTree() {
	term := a.search.GetText()
	nodes := a.roots
	if term != "" {
		nodes = normalize.Filter(a.roots, term)
	}

	root := tview.NewTreeNode("Bookmarks").SetSelectable(false)
	for i := range nodes {
		root.AddChild(a.treeNode(&nodes[i], 0, term != ""))
	}

	current := a.currentID()
	a.tree.SetRoot(root)
	a.tree.SetCurrentNode(nil)
	if current != "" {
		root.Walk(func(node, parent *tview.TreeNode) bool {
			if id, _ := node.GetReference().(string); id == current {
				a.tree.SetCurrentNode(node)
				return false
			}
			return true
		})
	}
	if a.tree.GetCurrentNode() == nil && len(root.GetChildren()) > 0 {
		a.tree.SetCurrentNode(root.GetChildren()[0])
	}

	a.showDetails()
	a.updateStatus()
}

func (a *App) treeNode(node *models.BookmarkNode, level int, expandAll bool) *tview.TreeNode {
	tn := tview.NewTreeNode(a.label(node)).
		SetReference(node.ID).
		SetSelectable(true)

	if node.IsFolder() {
		tn.SetColor(tcell.ColorYellow)
		for i := range node.Children {
			tn.AddChild(a.treeNode(&node.Children[i], level+1, expandAll))
		}
		tn.SetExpanded(expandAll || level == 0 || a.cfg.Settings.AutoExpandFolders)
	}
	return tn
}

func (a *App) label(node *models.BookmarkNode) string {
	var b strings.Builder
	if a.selected[node.ID] {
		b.WriteString(markChecked)
	} else {
		b.WriteString(markUnchecked)
	}
	if a.cfg.Settings.ShowBookmarkIcon {
		if node.IsFolder() {
			b.WriteString(iconFolder)
		} else {
			b.WriteString(iconBookmark)
		}
	}
	title := node.Title
	if title == "" {
		title = node.URL
	}
	b.WriteString(tview.Escape(title))
	return b.String()
}

func (a *App) currentID() string {
	node := a.tree.GetCurrentNode()
	if node == nil {
		return ""
	}
	id, _ := node.GetReference().(string)
	return id
}

func (a *App) currentNode() *models.BookmarkNode {
	return a.byID[a.currentID()]
}

func (a *App) updateStatus() {
	total := normalize.CountBookmarks(a.roots)
	selected := 0
	if len(a.selected) > 0 {
		selected = normalize.CountBookmarks(normalize.Select([]models.BookmarkNode{{Children: a.roots}}, a.selected))
	}

	countText := fmt.Sprintf(" [::b]%d[::r] bookmarks", total)
	if selected > 0 {
		countText += fmt.Sprintf(", [::b]%d[::r] selected", selected)
	}

	a.status.SetText("[::b]Space[::r] check  [::b]/[::r] search  [::b]h[::r] html  [::b]j[::r] json  [::b]i[::r] import  [::b]s[::r] settings  [::b]c[::r] clear  [::b]q[::r] quit" + countText)
}

func (a *App) showDetails() {
	node := a.currentNode()
	if node == nil {
		a.detail.SetText("")
		return
	}

	var text string
	if node.IsFolder() {
		text = fmt.Sprintf(
			"[::b]Type:[::-]\nFolder\n\n[::b]Name:[::-]\n%s\n\n[::b]Bookmarks:[::-]\n%d\n\n[::b]Added:[::-]\n%s\n\n[::b]Modified:[::-]\n%s",
			tview.Escape(node.Title), normalize.CountBookmarks(node.Children),
			formatDate(node.DateAdded), formatDate(node.DateGroupModified))
	} else {
		text = fmt.Sprintf(
			"[::b]Type:[::-]\nBookmark\n\n[::b]Title:[::-]\n%s\n\n[::b]URL:[::-]\n%s\n\n[::b]Added:[::-]\n%s\n\n[::b]Last used:[::-]\n%s",
			tview.Escape(node.Title), tview.Escape(node.URL),
			formatDate(node.DateAdded), formatDate(node.DateLastUsed))
	}
	a.detail.SetText(text)
}

func formatDate(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func (a *App) setMode(m uint8) {
	a.mode = m
	switch m {
	case ModeSearch:
		a.app.SetFocus(a.search)
	case ModeNormal:
		a.app.SetFocus(a.tree)
	}
}

func (a *App) onSearchChange(text string) {
	a.fillTree()
}

func (a *App) onSearchDone(key tcell.Key) {
	switch key {
	case tcell.KeyEnter:
		a.setMode(ModeNormal)
	case tcell.KeyEscape:
		a.search.SetText("")
		a.setMode(ModeNormal)
	}
}

func (a *App) onSelect(node *tview.TreeNode) {
	a.showDetails()
}

func (a *App) toggleChecked() {
	tn := a.tree.GetCurrentNode()
	node := a.currentNode()
	if tn == nil || node == nil {
		return
	}
	if a.selected[node.ID] {
		delete(a.selected, node.ID)
	} else {
		a.selected[node.ID] = true
	}
	tn.SetText(a.label(node))
	a.updateStatus()
}

func (a *App) clearChecked() {
	a.selected = make(map[string]bool)
	a.fillTree()
}

func (a *App) globalInput(event *tcell.EventKey) *tcell.EventKey {
	if a.pages.HasPage("error") || a.pages.HasPage("info") {
		return event
	}

	switch a.mode {
	case ModeNormal:
		switch event.Key() {
		case tcell.KeyEnter:
			tn := a.tree.GetCurrentNode()
			node := a.currentNode()
			if tn == nil || node == nil {
				return nil
			}
			if node.IsFolder() {
				tn.SetExpanded(!tn.IsExpanded())
			} else {
				openURL(node.URL)
			}
			return nil
		case tcell.KeyEscape:
			if a.search.GetText() != "" {
				a.search.SetText("")
				return nil
			}
		case tcell.KeyRune:
			switch event.Rune() {
			case ' ':
				a.toggleChecked()
				return nil
			case '/':
				a.setMode(ModeSearch)
				return nil
			case 'h':
				a.export(format.HTML)
				return nil
			case 'j':
				a.export(format.JSON)
				return nil
			case 'i':
				a.showImportForm()
				return nil
			case 's':
				a.showSettingsForm()
				return nil
			case 'c':
				a.clearChecked()
				return nil
			case 'q':
				a.app.Stop()
				return nil
			}
		}
	case ModeForm:
		if event.Key() == tcell.KeyEscape {
			a.closeForm()
			return nil
		}
	}
	return event
}

// export writes the checked nodes, or everything when nothing is checked, into the
// export directory. Icon downloads can be slow, so it runs off the UI goroutine.
func (a *App) export(f format.Format) {
	var selected map[string]bool
	if len(a.selected) > 0 {
		selected = make(map[string]bool, len(a.selected))
		for id := range a.selected {
			selected[id] = true
		}
	}
	opts := a.cfg.Settings.ExportOptions()
	path := filepath.Join(a.cfg.ExportDir, fmt.Sprintf("bookmarks_%s.%s", time.Now().Format("2006-01-02_150405"), f))

	a.status.SetText(fmt.Sprintf("Exporting to %s...", path))
	go func() {
		data, err := a.svc.ExportBytes(a.ctx, f, opts, selected)
		if err == nil {
			err = os.WriteFile(path, data, 0644)
		}
		a.app.QueueUpdateDraw(func() {
			a.updateStatus()
			if err != nil {
				a.logger.Error("export failed", "path", path, "error", err)
				a.showError(fmt.Sprintf("Export failed: %v", err))
				return
			}
			a.logger.Info("exported bookmarks", "path", path, "format", f)
			a.showInfo(fmt.Sprintf("Exported to %s", path))
		})
	}()
}

func (a *App) showImportForm() {
	var path, mimeType string

	form := tview.NewForm()
	form.AddInputField("File", "", 60, nil, func(t string) { path = t })
	form.AddDropDown("Type", []string{"from extension", "text/html", "application/json"}, 0, func(option string, index int) {
		if index == 0 {
			mimeType = ""
		} else {
			mimeType = option
		}
	})

	form.AddButton("Import", func() {
		if path == "" {
			a.showError("Error: file is required")
			return
		}
		content, err := os.ReadFile(path)
		if err != nil {
			a.showError(fmt.Sprintf("Cannot open file: %v", err))
			return
		}
		if mimeType == "" {
			mimeType = format.TypeByExtension(filepath.Ext(path))
		}

		stats, err := a.svc.Import(a.ctx, content, mimeType)
		// a partial import still changed the store
		if reloadErr := a.reload(); reloadErr != nil {
			a.logger.Error("reload failed", "error", reloadErr)
		}
		if err != nil {
			a.logger.Error("import failed", "path", path, "error", err)
			a.showError(fmt.Sprintf("Import failed: %v", err))
			return
		}

		a.closeForm()
		a.showInfo(fmt.Sprintf("Imported %d bookmarks and %d folders", stats.Bookmarks, stats.Folders))
	})
	form.AddButton("Cancel", a.closeForm)

	form.SetBorder(true).SetTitle("Import")
	a.pages.AddPage("form", form, true, true)
	a.app.SetFocus(form)
	a.mode = ModeForm
}

func (a *App) showSettingsForm() {
	s := a.cfg.Settings

	form := tview.NewForm()
	form.AddCheckbox("Auto expand folders", s.AutoExpandFolders, func(v bool) { s.AutoExpandFolders = v })
	form.AddCheckbox("Show bookmark icon", s.ShowBookmarkIcon, func(v bool) { s.ShowBookmarkIcon = v })
	form.AddCheckbox("Include icon data", s.IncludeIconData, func(v bool) { s.IncludeIconData = v })
	form.AddCheckbox("Include dates", s.IncludeDates, func(v bool) { s.IncludeDates = v })
	form.AddCheckbox("Hide Other bookmarks", s.HideOtherBookmarks, func(v bool) { s.HideOtherBookmarks = v })
	form.AddCheckbox("Hide parent folder", s.HideParentFolder, func(v bool) { s.HideParentFolder = v })

	form.AddButton("Save", func() {
		previous := a.cfg.Settings
		a.cfg.Settings = s
		if err := a.cfg.Save(); err != nil {
			a.cfg.Settings = previous
			a.showError(fmt.Sprintf("Error saving settings: %v", err))
			return
		}
		a.closeForm()
		a.fillTree()
	})
	form.AddButton("Cancel", a.closeForm)

	form.SetBorder(true).SetTitle("Settings")
	a.pages.AddPage("form", form, true, true)
	a.app.SetFocus(form)
	a.mode = ModeForm
}

func (a *App) closeForm() {
	a.pages.RemovePage("form")
	a.setMode(ModeNormal)
}

func (a *App) showError(message string) {
	a.showModal("error", "Error", message)
}

func (a *App) showInfo(message string) {
	a.showModal("info", "Done", message)
}

func (a *App) showModal(name, title, message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage(name)
			if a.pages.HasPage("form") {
				a.mode = ModeForm
				return
			}
			a.setMode(ModeNormal)
		})

	modal.SetBorder(true).SetTitle(title)
	a.pages.AddPage(name, modal, true, true)
	a.mode = ModeModal
	a.app.SetFocus(modal)
}

func openURL(url string) {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	_ = exec.Command(cmd, args...).Start()
}
