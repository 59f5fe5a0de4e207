package web

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

func itoa(value int) string {
	return strconv.Itoa(value)
}

// jsString encodes value as a JavaScript string literal safe inside a script tag.
func jsString(value string) string {
	data, err := json.Marshal(value)
	if err != nil {
		return `""`
	}
	return string(data)
}

const pageStyles = `
      body { font-family: system-ui, sans-serif; margin: 0; background: #f4f1ea; color: #1a1a1a; }
      .shell { max-width: 720px; margin: 0 auto; padding: 32px 20px; }
      .panel { background: #fff; border-radius: 12px; padding: 20px; margin-bottom: 20px; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
      .tag { text-transform: uppercase; letter-spacing: .1em; font-size: 12px; color: #845ef7; }
      input, textarea { width: 100%; box-sizing: border-box; padding: 10px; margin: 6px 0 12px; border: 1px solid #ccc; border-radius: 8px; font: inherit; }
      button { padding: 10px 18px; border: 0; border-radius: 8px; background: #4361ee; color: #fff; font: inherit; cursor: pointer; }
      button:disabled { background: #adb5bd; cursor: default; }
      .result { margin-top: 12px; min-height: 1.2em; }
      .pairs { list-style: none; padding: 0; }
      .pairs li { border-left: 6px solid #ccc; padding: 8px 12px; margin-bottom: 10px; background: #fafafa; white-space: pre-wrap; }
      .hidden { display: none; }
`

func writePageStart(w io.Writer, title string) {
	_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>`+templ.EscapeString(title)+`</title>
    <style>`+pageStyles+`</style>
  </head>
  <body>
    <main class="shell">
`)
}

func writePageEnd(w io.Writer) {
	_, _ = io.WriteString(w, `    </main>
  </body>
</html>
`)
}
