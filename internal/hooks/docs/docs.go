// METADATA
//
// Package docs - documentation enhancer hook (Component G)
//
// Purpose & Function
//
// Detects libraries a pre-edit write is about to touch (or a dependency
// manifest a post-edit read just opened) via three parallel detection
// passes — dependency-manifest parsing, import-statement scanning, and
// framework-pattern fingerprinting — then enhances the operation with
// current documentation fetched through an external Context7-shaped MCP
// tool reached over the stdio JSON-RPC transport. Lookups are cached per
// (library, topic) for the life of the process. The cache is
// deliberately per-process, unbounded by count, and TTL-evicted only on
// read — not a shared, bounded cache — matching the behavior this hook
// is derived from; see DESIGN.md's recorded Open Question resolution
// before "fixing" that.
package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/nova-dawn/hookctl/internal/eventenv"
	"github.com/nova-dawn/hookctl/internal/hooks"
	"github.com/nova-dawn/hookctl/internal/pool"
	"github.com/nova-dawn/hookctl/internal/registry"
	"github.com/nova-dawn/hookctl/internal/transport"
)

const EntryPoint = "docs"

func init() {
	registry.Register(EntryPoint, New)
}

var defaultPriorityLibraries = []string{
	"react", "next.js", "typescript", "react-query", "tailwindcss",
	"django", "fastapi", "nextauth.js", "prisma",
}

// dependencyManifestNames names the files whose path alone marks a
// PostToolUse Read as worth scanning for dependency changes.
var dependencyManifestNames = []string{
	"package.json", "requirements.txt", "Cargo.toml",
	"pyproject.toml", "composer.json", "go.mod",
}

var dependencyFileIndicators = []string{
	`"dependencies":`, `"devDependencies":`,
	"install_requires", "requirements.txt",
	"[dependencies]", "Cargo.toml",
}

var packageJSONKeyRe = regexp.MustCompile(`"([^"@]+)"\s*:`)

var requirementsLineRe = regexp.MustCompile(`(?m)^([a-zA-Z][a-zA-Z0-9\-_]*)`)

var pipBuildTools = map[string]bool{"pip": true, "setuptools": true, "wheel": true}

var jsImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`import\s+.*?\s+from\s+["']([^"']+)["']`),
	regexp.MustCompile(`require\s*\(\s*["']([^"']+)["']\s*\)`),
	regexp.MustCompile(`import\s*\(\s*["']([^"']+)["']\s*\)`),
}

var pythonImportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`from\s+([a-zA-Z][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*)`),
	regexp.MustCompile(`import\s+([a-zA-Z][a-zA-Z0-9_]*(?:\.[a-zA-Z0-9_]+)*)`),
}

// pythonStdlib rejects well-known standard-library module roots so an
// ordinary "import os" never gets treated as a documentation candidate.
var pythonStdlib = map[string]bool{
	"os": true, "sys": true, "json": true, "typing": true, "pathlib": true,
	"collections": true, "re": true, "datetime": true, "time": true,
	"random": true, "math": true, "itertools": true, "functools": true,
	"operator": true, "copy": true, "io": true, "pickle": true, "csv": true,
	"sqlite3": true, "urllib": true, "http": true, "email": true, "html": true,
	"xml": true, "unittest": true, "doctest": true, "pdb": true, "argparse": true,
	"logging": true, "warnings": true, "traceback": true, "inspect": true,
	"ast": true, "types": true, "enum": true, "dataclasses": true, "abc": true,
	"asyncio": true, "concurrent": true, "multiprocessing": true, "threading": true,
	"queue": true, "socket": true, "ssl": true, "select": true, "signal": true,
	"subprocess": true, "shutil": true, "tempfile": true, "glob": true,
	"fnmatch": true, "configparser": true, "hashlib": true, "hmac": true,
	"secrets": true, "uuid": true, "contextlib": true, "decimal": true,
	"fractions": true, "statistics": true, "array": true, "bisect": true,
	"heapq": true, "weakref": true, "zlib": true, "gzip": true, "zipfile": true,
	"tarfile": true, "platform": true, "errno": true, "ctypes": true,
	"struct": true, "codecs": true, "locale": true, "gettext": true,
	"textwrap": true, "shlex": true, "builtins": true, "__future__": true,
	"importlib": true, "pkgutil": true, "numbers": true, "ipaddress": true,
}

type frameworkPattern struct {
	name     string
	patterns []*regexp.Regexp
}

// frameworkPatternList is ordered (not a map) so detection order, and
// hence priority, stays deterministic across runs.
var frameworkPatternList = []frameworkPattern{
	{"react", reList(`useState`, `useEffect`, `React\.`, `jsx`, `tsx`)},
	{"next.js", reList(`next/`, `getStaticProps`, `getServerSideProps`, `NextApiRequest`)},
	{"django", reList(`django\.`, `models\.Model`, `views\.`, `urls\.py`)},
	{"fastapi", reList(`FastAPI`, `@app\.`, `Depends\(`, `APIRouter`)},
	{"flask", reList(`Flask`, `@app\.route`, `request\.`)},
	{"express", reList(`express`, `app\.get`, `app\.post`, `req,\s*res`)},
	{"vue", reList(`Vue\.`, `v-if`, `v-for`, `@click`)},
	{"angular", reList(`@Component`, `@Injectable`, `ngOnInit`)},
}

func reList(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// topicOrder and topicKeywords infer a documentation topic from edited
// text; order matters only in that the first matching topic wins.
var topicOrder = []string{"authentication", "routing", "testing", "hooks", "components", "database"}

var topicKeywords = map[string][]string{
	"authentication": {"auth", "login", "token", "session", "passport"},
	"routing":        {"route", "router", "path", "endpoint", "api"},
	"testing":        {"test", "spec", "mock", "jest", "pytest"},
	"hooks":          {"usestate", "useeffect", "usecallback", "usememo"},
	"components":     {"component", "render", "props", "jsx", "tsx"},
	"database":       {"db", "query", "model", "schema", "migration"},
}

var (
	titleRe = regexp.MustCompile(`Title: ([^\n]+)`)
	trustRe = regexp.MustCompile(`Trust Score: ([\d.]+)`)
	libIDRe = regexp.MustCompile(`Context7-compatible library ID: ([^\n]+)`)
)

const (
	maxSnippetsShown   = 2
	titleMaxLen        = 60
	descriptionMaxLen  = 100
	codeMaxLen         = 150
	codeLookaheadLines = 5
	docScanLines       = 20
)

type cacheEntry struct {
	doc       string
	expiresAt time.Time
}

// Hook implements the documentation detection/enhancement pipeline.
type Hook struct {
	cfg               hooks.Config
	maxLibraries      int
	maxTokens         int
	ttl               time.Duration
	priorityLibraries []string
	poolName          string
	mcpTimeout        time.Duration

	pool *pool.Manager
	tr   transport.Transport
	log  zerolog.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(cfg hooks.Config) (hooks.Hook, error) {
	return &Hook{
		cfg:               cfg,
		maxLibraries:      cfg.Int("max_libraries", 3),
		maxTokens:         cfg.Int("max_tokens_per_library", 8000),
		ttl:               time.Duration(cfg.Int("cache_ttl_seconds", 24*3600)) * time.Second,
		priorityLibraries: stringSlice(cfg, "priority_libraries", defaultPriorityLibraries),
		poolName:          cfg.String("resource_pool", "documentation"),
		mcpTimeout:        time.Duration(cfg.Int("mcp_timeout_seconds", 30)) * time.Second,
		log:               zerolog.Nop(),
		cache:             make(map[string]cacheEntry),
	}, nil
}

// Attach wires the runtime collaborators the registry constructs
// separately from hook config: the pool manager gating concurrent
// enhancement calls, and the stdio transport to the documentation
// server.
func (h *Hook) Attach(mgr *pool.Manager, tr transport.Transport, log zerolog.Logger) {
	h.pool = mgr
	h.tr = tr
	h.log = log
}

func (h *Hook) Name() string { return EntryPoint }

func (h *Hook) GetConfigSchema() hooks.ConfigSchema {
	return hooks.ConfigSchema{
		"enabled":                {Type: "bool", Default: true, Description: "run this hook at all"},
		"auto_detect_libraries":  {Type: "bool", Default: true, Description: "detect libraries and fetch documentation"},
		"max_tokens_per_library": {Type: "int", Default: 8000, Description: "token budget passed to get-library-docs"},
		"max_libraries":          {Type: "int", Default: 3, Description: "maximum libraries enhanced per event"},
		"cache_ttl_seconds":      {Type: "int", Default: 24 * 3600, Description: "how long a (library, topic) lookup stays cached"},
		"priority_libraries":     {Type: "[]string", Default: defaultPriorityLibraries, Description: "libraries prioritized ahead of the rest of the detected set"},
		"resource_pool":          {Type: "string", Default: "documentation", Description: "pool an enhancement permit is acquired from"},
		"mcp_timeout_seconds":    {Type: "int", Default: 30, Description: "deadline for the pool acquire wait and the resolve/fetch calls it guards"},
	}
}

func (h *Hook) IsApplicable(ev eventenv.Event) bool {
	switch ev.EventType {
	case "PreToolUse":
		return ev.ToolName == "Write" || ev.ToolName == "Edit" || ev.ToolName == "MultiEdit"
	case "PostToolUse":
		return ev.ToolName == "Read" && isDependencyManifestPath(ev.FilePath())
	default:
		return false
	}
}

func isDependencyManifestPath(path string) bool {
	if path == "" {
		return false
	}
	for _, name := range dependencyManifestNames {
		if strings.Contains(path, name) {
			return true
		}
	}
	return false
}

func (h *Hook) ProcessEvent(ctx context.Context, ev eventenv.Event) (eventenv.Decision, error) {
	if !h.cfg.Bool("enabled", true) || !h.cfg.Bool("auto_detect_libraries", true) {
		return eventenv.Allow(), nil
	}

	libraries := h.detectLibraries(ev)
	if len(libraries) == 0 {
		return eventenv.Allow(), nil
	}
	h.log.Debug().Strs("libraries", libraries).Msg("context7: detected libraries")

	var enhancements []string
	for _, lib := range libraries {
		if doc := h.enhance(ctx, lib, ev); doc != "" {
			enhancements = append(enhancements, doc)
		}
	}
	if len(enhancements) == 0 {
		return eventenv.Allow(), nil
	}
	return eventenv.Decision{Continue: true, Reasoning: formatContextEnhancement(enhancements)}, nil
}

// detectLibraries runs the three detection passes against every text
// source the event carries, de-dupes into first-seen order, prioritizes
// the configured libraries, and truncates to maxLibraries.
func (h *Hook) detectLibraries(ev eventenv.Event) []string {
	sources := []string{ev.Content(), ev.NewString(), ev.FilePath()}

	seen := map[string]bool{}
	var ordered []string
	add := func(lib string) {
		if lib == "" || seen[lib] {
			return
		}
		seen[lib] = true
		ordered = append(ordered, lib)
	}

	for _, content := range sources {
		if content == "" {
			continue
		}
		if isDependencyFileContent(content) {
			for _, lib := range extractDependencies(content) {
				add(lib)
			}
		}
		for _, lib := range extractImports(content) {
			add(lib)
		}
		for _, lib := range detectFrameworkPatterns(content) {
			add(lib)
		}
	}

	prioritized := h.prioritize(ordered)
	maxLibraries := h.maxLibraries
	if maxLibraries <= 0 {
		maxLibraries = 3
	}
	if len(prioritized) > maxLibraries {
		prioritized = prioritized[:maxLibraries]
	}
	return prioritized
}

func isDependencyFileContent(content string) bool {
	for _, indicator := range dependencyFileIndicators {
		if strings.Contains(content, indicator) {
			return true
		}
	}
	return false
}

func extractDependencies(content string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	if strings.Contains(content, `"dependencies":`) || strings.Contains(content, `"devDependencies":`) {
		for _, m := range packageJSONKeyRe.FindAllStringSubmatch(content, -1) {
			if !strings.HasPrefix(m[1], "@types/") {
				add(m[1])
			}
		}
	}
	for _, m := range requirementsLineRe.FindAllStringSubmatch(content, -1) {
		lib := strings.ToLower(m[1])
		if !pipBuildTools[lib] {
			add(lib)
		}
	}
	return out
}

func extractImports(content string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, re := range jsImportPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			lib := strings.SplitN(m[1], "/", 2)[0]
			if !strings.HasPrefix(lib, ".") && !strings.HasPrefix(lib, "@types/") {
				add(lib)
			}
		}
	}
	for _, re := range pythonImportPatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			lib := strings.SplitN(m[1], ".", 2)[0]
			if !pythonStdlib[lib] {
				add(lib)
			}
		}
	}
	return out
}

func detectFrameworkPatterns(content string) []string {
	var out []string
	for _, fp := range frameworkPatternList {
		for _, re := range fp.patterns {
			if re.MatchString(content) {
				out = append(out, fp.name)
				break
			}
		}
	}
	return out
}

func (h *Hook) prioritize(libs []string) []string {
	priority := map[string]bool{}
	for _, p := range h.priorityLibraries {
		priority[p] = true
	}

	var pri, reg []string
	for _, lib := range libs {
		if priority[lib] {
			pri = append(pri, lib)
		} else {
			reg = append(reg, lib)
		}
	}
	return append(pri, reg...)
}

func inferTopic(ev eventenv.Event) string {
	content := ev.Content()
	if content == "" {
		content = ev.NewString()
	}
	lower := strings.ToLower(content)
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				return topic
			}
		}
	}
	return ""
}

// enhance runs the per-library enhancement pipeline: cache lookup, a
// documentation pool permit held only for the resolve+fetch round trip,
// resolve-library-id, then get-library-docs. Any failure along the way
// degrades silently to "no enhancement" for this library.
func (h *Hook) enhance(ctx context.Context, library string, ev eventenv.Event) string {
	topic := inferTopic(ev)
	key := library + "_" + topic

	h.mu.Lock()
	if e, ok := h.cache[key]; ok && time.Now().Before(e.expiresAt) {
		h.mu.Unlock()
		return e.doc
	}
	h.mu.Unlock()

	if h.tr == nil {
		return ""
	}

	if h.pool != nil {
		permit, ok, err := h.pool.AcquireWait(ctx, h.poolName, map[string]string{"library": library}, h.mcpTimeout)
		if err != nil || !ok {
			return ""
		}
		defer permit.Release()
	}

	cctx, cancel := context.WithTimeout(ctx, h.mcpTimeout)
	defer cancel()

	libID := h.resolveLibraryID(cctx, library)
	doc, err := h.fetchLibraryDocs(cctx, libID, topic)
	if err != nil || doc == "" {
		return ""
	}

	h.mu.Lock()
	h.cache[key] = cacheEntry{doc: doc, expiresAt: time.Now().Add(h.ttl)}
	h.mu.Unlock()

	h.log.Debug().Str("library", library).Str("resolved_id", libID).Msg("documentation fetched")
	return doc
}

type resolveLibraryIDParams struct {
	LibraryName string `json:"libraryName"`
}

// resolveLibraryID never hard-fails: a lookup error or an unparseable or
// empty response all fall back to the raw library name, same as the
// behavior this hook is derived from.
func (h *Hook) resolveLibraryID(ctx context.Context, library string) string {
	params, err := json.Marshal(resolveLibraryIDParams{LibraryName: library})
	if err != nil {
		return library
	}
	resp, err := h.tr.Call(ctx, transport.Request{Method: "resolve-library-id", Params: params})
	if err != nil {
		return library
	}
	text, err := mcpText(resp)
	if err != nil || text == "" {
		return library
	}
	if id := selectBestLibraryMatch(text, library); id != "" {
		return id
	}
	return library
}

// selectBestLibraryMatch parses entries separated by "----------", each
// carrying a Title, a Context7-compatible library ID, and a Trust Score,
// and picks the entry whose relevance score is highest: an exact title
// match scores 100+trust, a prefix match 80+trust, a substring match
// 60+trust, otherwise just trust.
func selectBestLibraryMatch(text, original string) string {
	entries := strings.Split(text, "----------")
	lowerOriginal := strings.ToLower(original)

	var bestID string
	var bestScore float64

	for _, entry := range entries {
		if !strings.Contains(entry, "Context7-compatible library ID:") {
			continue
		}

		title := ""
		if m := titleRe.FindStringSubmatch(entry); m != nil {
			title = strings.TrimSpace(m[1])
		}
		trust := 0.0
		if m := trustRe.FindStringSubmatch(entry); m != nil {
			trust, _ = strconv.ParseFloat(m[1], 64)
		}

		lowerTitle := strings.ToLower(title)
		var score float64
		switch {
		case lowerTitle == lowerOriginal:
			score = 100 + trust
		case strings.HasPrefix(lowerTitle, lowerOriginal):
			score = 80 + trust
		case strings.Contains(lowerTitle, lowerOriginal):
			score = 60 + trust
		default:
			score = trust
		}

		if score > bestScore {
			bestScore = score
			bestID = ""
			if m := libIDRe.FindStringSubmatch(entry); m != nil {
				bestID = strings.TrimSpace(m[1])
			}
		}
	}
	return bestID
}

type getLibraryDocsParams struct {
	LibraryID string `json:"context7CompatibleLibraryID"`
	Tokens    int    `json:"tokens"`
	Topic     string `json:"topic,omitempty"`
}

func (h *Hook) fetchLibraryDocs(ctx context.Context, libID, topic string) (string, error) {
	params, err := json.Marshal(getLibraryDocsParams{LibraryID: libID, Tokens: h.maxTokens, Topic: topic})
	if err != nil {
		return "", err
	}
	resp, err := h.tr.Call(ctx, transport.Request{Method: "get-library-docs", Params: params})
	if err != nil {
		return "", err
	}
	return mcpText(resp)
}

type mcpContentResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func mcpText(resp transport.Response) (string, error) {
	if len(resp.Result) == 0 {
		return "", fmt.Errorf("docs: empty result")
	}
	var parsed mcpContentResponse
	if err := json.Unmarshal(resp.Result, &parsed); err != nil {
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("docs: no content entries")
	}
	return parsed.Content[0].Text, nil
}

// formatContextEnhancement renders at most the first two fetched
// snippets (title ≤60 chars, description ≤100 chars, up to 5 lines of
// example code ≤150 chars) plus a trailing count of anything left over.
func formatContextEnhancement(enhancements []string) string {
	if len(enhancements) == 0 {
		return ""
	}

	parts := []string{"📚 Context7: Enhanced context with current documentation", ""}

	shown := enhancements
	if len(shown) > maxSnippetsShown {
		shown = shown[:maxSnippetsShown]
	}

	for _, doc := range shown {
		title, description, code := parseDocSnippet(doc)
		if title == "" && description == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("🔸 **%s**", truncate(title, titleMaxLen)))
		if description != "" {
			parts = append(parts, fmt.Sprintf("   %s", truncate(description, descriptionMaxLen)))
		}
		if code != "" {
			parts = append(parts, fmt.Sprintf("   ```\n   %s\n   ```", truncate(code, codeMaxLen)))
		}
		parts = append(parts, "")
	}

	if len(enhancements) > maxSnippetsShown {
		parts = append(parts, fmt.Sprintf("... and %d more documentation entries available", len(enhancements)-maxSnippetsShown))
	}
	parts = append(parts, "💡 Full documentation available for enhanced code completion")

	return strings.Join(parts, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// parseDocSnippet extracts a TITLE:/DESCRIPTION:/CODE: block from the
// first 20 lines of a fetched documentation string, taking up to 5
// non-blank, non-fence lines after the CODE: marker.
func parseDocSnippet(doc string) (title, description, code string) {
	lines := strings.Split(doc, "\n")
	if len(lines) > docScanLines {
		lines = lines[:docScanLines]
	}

	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "TITLE:"):
			title = strings.TrimSpace(strings.TrimPrefix(line, "TITLE:"))
		case strings.HasPrefix(line, "DESCRIPTION:"):
			description = strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:"))
		case strings.HasPrefix(line, "CODE:") && code == "":
			end := min(i+1+codeLookaheadLines, len(lines))
			var codeLines []string
			for _, cl := range lines[i+1 : end] {
				if strings.TrimSpace(cl) != "" && !strings.HasPrefix(cl, "```") {
					codeLines = append(codeLines, cl)
				} else if strings.HasPrefix(cl, "```") && len(codeLines) > 0 {
					break
				}
			}
			code = strings.Join(codeLines, "\n")
		}
	}
	return title, description, code
}

func stringSlice(cfg hooks.Config, key string, def []string) []string {
	raw, ok := cfg[key]
	if !ok {
		return def
	}
	arr, ok := raw.([]interface{})
	if !ok {
		return def
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func (h *Hook) Cleanup() error {
	if h.tr != nil {
		return h.tr.Close()
	}
	return nil
}
