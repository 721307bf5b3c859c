package sandbox

import (
	"fmt"
	"strconv"
)

// The harness is the generated entry file that carries the user source
// and one test case through an interpreter. It evaluates the case's
// free-form input text ("nums = [2,7,11,15], target = 9") into
// positional arguments, calls the conventional `solution` callable,
// and prints the stringified return value on stdout. Any exception
// escapes on stderr with a non-zero exit, which the grader records as
// a failed case. Dynamic evaluation happens only inside the isolated
// process, never in the host.

const jsHarness = `"use strict";
%s

const __raw = %s;

function __args(raw) {
	const stripped = raw.replace(/[A-Za-z_$][\w$]*\s*=\s*/g, "");
	if (stripped.trim() === "") {
		return [];
	}
	return Function('"use strict"; return [' + stripped + '];')();
}

function __stringify(v) {
	if (v === undefined) return "undefined";
	if (typeof v === "string") return v;
	return JSON.stringify(v);
}

process.stdout.write(__stringify(solution.apply(null, __args(__raw))));
`

const pyHarness = `import json
import re
import sys

%s

_raw = %s


def _args(raw):
    stripped = re.sub(r"[A-Za-z_]\w*\s*=\s*", "", raw)
    if not stripped.strip():
        return []
    return list(eval("[" + stripped + "]", {"__builtins__": {}}))


def _stringify(v):
    if isinstance(v, str):
        return v
    if isinstance(v, bool):
        return "true" if v else "false"
    return json.dumps(v, separators=(",", ":"))


sys.stdout.write(_stringify(solution(*_args(_raw))))
`

// buildHarness renders the per-language harness around the user source
// and the raw input text of one test case.
func buildHarness(lang Language, code, input string) (string, error) {
	quoted := strconv.Quote(input)
	switch lang {
	case LanguageJavaScript:
		return fmt.Sprintf(jsHarness, code, quoted), nil
	case LanguagePython:
		return fmt.Sprintf(pyHarness, code, quoted), nil
	default:
		return "", fmt.Errorf("unsupported language: %s", lang)
	}
}
