package permission

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects how aggressively the gate intervenes.
type Mode string

const (
	// ModeAuto allows every invocation without confirmation.
	ModeAuto Mode = "auto"
	// ModeStrict requires confirmation for everything not explicitly safe-listed.
	ModeStrict Mode = "strict"
	// ModeInteractive applies path/command policy checks and confirms only
	// capabilities that declare or are configured to need it.
	ModeInteractive Mode = "interactive"
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeAuto:
		return ModeAuto, nil
	case ModeStrict:
		return ModeStrict, nil
	case ModeInteractive, Mode(""):
		return ModeInteractive, nil
	default:
		return "", fmt.Errorf("unknown permission mode %q", s)
	}
}

// Verdict is the closed set of gate outcomes.
type Verdict string

const (
	// VerdictAllow permits immediate execution.
	VerdictAllow Verdict = "allow"
	// VerdictDeny blocks execution; Reason explains why.
	VerdictDeny Verdict = "deny"
	// VerdictNeedConfirmation defers the decision to the user.
	VerdictNeedConfirmation Verdict = "need_confirmation"
)

// Decision is the gate's answer for a single invocation request.
type Decision struct {
	Verdict Verdict
	Reason  string
}

// Request describes one capability invocation to be judged. RequiresConfirmation
// carries the capability's declared flag from the registry.
type Request struct {
	Capability           string
	Arguments            map[string]any
	RequiresConfirmation bool
}

// Policy is the immutable configuration the gate evaluates requests against.
// Blocked entries always win over allowed entries. Empty allow-lists impose no
// restriction; non-empty ones deny anything absent from them.
type Policy struct {
	Mode Mode

	// BlockedPaths / AllowedPaths are fnmatch-style globs ('*' crosses
	// directory separators) applied to filesystem-path arguments.
	BlockedPaths []string
	AllowedPaths []string

	// BlockedCommands are substrings denied anywhere in a shell command.
	// AllowedCommands, when non-empty, restricts the command's first token.
	BlockedCommands []string
	AllowedCommands []string

	// ConfirmCapabilities require confirmation even when the capability
	// itself does not declare it.
	ConfirmCapabilities []string

	// SafeCapabilities skip confirmation in strict mode.
	SafeCapabilities []string
}

// DefaultPolicy returns an interactive-mode policy with no lists configured.
func DefaultPolicy() Policy {
	return Policy{Mode: ModeInteractive}
}

// Gate evaluates invocation requests against a fixed Policy. It holds no
// mutable state; Decide is safe for concurrent use.
type Gate struct {
	policy       Policy
	blockedPaths []*regexp.Regexp
	allowedPaths []*regexp.Regexp
	confirmSet   map[string]struct{}
	safeSet      map[string]struct{}
}

// New compiles the policy's glob patterns and builds a Gate.
func New(policy Policy) *Gate {
	g := &Gate{
		policy:     policy,
		confirmSet: make(map[string]struct{}, len(policy.ConfirmCapabilities)),
		safeSet:    make(map[string]struct{}, len(policy.SafeCapabilities)),
	}
	for _, p := range policy.BlockedPaths {
		g.blockedPaths = append(g.blockedPaths, compileGlob(p))
	}
	for _, p := range policy.AllowedPaths {
		g.allowedPaths = append(g.allowedPaths, compileGlob(p))
	}
	for _, c := range policy.ConfirmCapabilities {
		g.confirmSet[c] = struct{}{}
	}
	for _, c := range policy.SafeCapabilities {
		g.safeSet[c] = struct{}{}
	}
	return g
}

// Mode returns the gate's configured mode.
func (g *Gate) Mode() Mode { return g.policy.Mode }

// Decide maps an invocation request to allow, deny or need_confirmation.
// Order of evaluation: auto short-circuit, blocked/allowed argument checks
// (deny wins), then confirmation requirements.
func (g *Gate) Decide(req Request) Decision {
	if g.policy.Mode == ModeAuto {
		return Decision{Verdict: VerdictAllow}
	}

	for _, p := range pathArguments(req.Arguments) {
		if d, denied := g.checkPath(p); denied {
			return d
		}
	}
	for _, c := range commandArguments(req.Arguments) {
		if d, denied := g.checkCommand(c); denied {
			return d
		}
	}

	if g.policy.Mode == ModeStrict {
		if _, ok := g.safeSet[req.Capability]; ok {
			return Decision{Verdict: VerdictAllow}
		}
		return Decision{Verdict: VerdictNeedConfirmation, Reason: fmt.Sprintf("capability %q requires confirmation in strict mode", req.Capability)}
	}

	if req.RequiresConfirmation {
		return Decision{Verdict: VerdictNeedConfirmation, Reason: fmt.Sprintf("capability %q requires confirmation", req.Capability)}
	}
	if _, ok := g.confirmSet[req.Capability]; ok {
		return Decision{Verdict: VerdictNeedConfirmation, Reason: fmt.Sprintf("capability %q requires confirmation", req.Capability)}
	}

	return Decision{Verdict: VerdictAllow}
}

func (g *Gate) checkPath(path string) (Decision, bool) {
	for i, re := range g.blockedPaths {
		if re.MatchString(path) {
			return Decision{Verdict: VerdictDeny, Reason: fmt.Sprintf("path %q matches blocked pattern %q", path, g.policy.BlockedPaths[i])}, true
		}
	}
	if len(g.allowedPaths) > 0 {
		for _, re := range g.allowedPaths {
			if re.MatchString(path) {
				return Decision{}, false
			}
		}
		return Decision{Verdict: VerdictDeny, Reason: fmt.Sprintf("path %q is not in the allowed path list", path)}, true
	}
	return Decision{}, false
}

func (g *Gate) checkCommand(command string) (Decision, bool) {
	for _, blocked := range g.policy.BlockedCommands {
		if strings.Contains(command, blocked) {
			return Decision{Verdict: VerdictDeny, Reason: fmt.Sprintf("command contains blocked pattern %q", blocked)}, true
		}
	}
	for _, dp := range destructivePatterns {
		if dp.re.MatchString(command) {
			return Decision{Verdict: VerdictDeny, Reason: fmt.Sprintf("command matches destructive pattern: %s", dp.reason)}, true
		}
	}
	if len(g.policy.AllowedCommands) > 0 {
		first := firstToken(command)
		for _, allowed := range g.policy.AllowedCommands {
			// Accept the bare name and any full path ending in it.
			if first == allowed || strings.HasSuffix(first, "/"+allowed) {
				return Decision{}, false
			}
		}
		return Decision{Verdict: VerdictDeny, Reason: fmt.Sprintf("command %q is not in the allowed command list", first)}, true
	}
	return Decision{}, false
}

// destructivePatterns catch commands that damage the host regardless of any
// configured lists.
var destructivePatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`rm\s+-\w*r\w*\s+/(\s|$)`), "recursive delete of filesystem root"},
	{regexp.MustCompile(`:\(\)\s*\{.*\};\s*:`), "fork bomb"},
	{regexp.MustCompile(`>\s*/dev/sd[a-z]`), "write to raw disk device"},
	{regexp.MustCompile(`\bmkfs(\.\w+)?\s`), "filesystem formatting"},
	{regexp.MustCompile(`\bdd\b.*\bof=/dev/`), "overwrite of disk device"},
}

// pathArguments extracts values of well-known filesystem argument keys.
func pathArguments(args map[string]any) []string {
	return stringArguments(args, "path", "file_path", "directory", "dir")
}

// commandArguments extracts values of well-known shell argument keys.
func commandArguments(args map[string]any) []string {
	return stringArguments(args, "command", "cmd")
}

func stringArguments(args map[string]any, keys ...string) []string {
	var out []string
	for _, k := range keys {
		if v, ok := args[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// firstToken returns the first whitespace-delimited token of a command.
func firstToken(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// compileGlob converts an fnmatch-style glob into an anchored regexp. '*'
// matches any run of characters including '/', '?' matches one character.
func compileGlob(pattern string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(pattern)
	quoted = strings.ReplaceAll(quoted, `\*`, `.*`)
	quoted = strings.ReplaceAll(quoted, `\?`, `.`)
	return regexp.MustCompile(`^` + quoted + `$`)
}
