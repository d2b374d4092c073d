package server

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/quicksite/internal/registry"
)

// liveReloadScript reconnects after restarts and reloads the page when any
// of the structures it shows changed.
const liveReloadScript = `<script>
(function () {
  var shown = document.body.dataset.qsStructures ? document.body.dataset.qsStructures.split(" ") : [];
  function connect() {
    var proto = location.protocol === "https:" ? "wss:" : "ws:";
    var ws = new WebSocket(proto + "//" + location.host + "/ws");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "structure_changed") { msg.targets = [msg.target]; }
      if (!msg.targets || msg.targets.length === 0) { location.reload(); return; }
      for (var i = 0; i < msg.targets.length; i++) {
        if (shown.indexOf(msg.targets[i]) !== -1) { location.reload(); return; }
      }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
</script>`

// pageShell wraps rendered body HTML in a full document. structures lists
// the refs shown so reload messages can be matched.
func pageShell(title, lang, body, overlay string, structures []string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html>\n<html lang=\"")
		b.WriteString(templ.EscapeString(lang))
		b.WriteString("\">\n<head>\n<meta charset=\"utf-8\">\n<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n<title>")
		b.WriteString(templ.EscapeString(title))
		b.WriteString("</title>\n</head>\n<body data-qs-structures=\"")
		b.WriteString(templ.EscapeString(strings.Join(structures, " ")))
		b.WriteString("\">\n")
		b.WriteString(body)
		b.WriteString(overlay)
		b.WriteString(liveReloadScript)
		b.WriteString("\n</body>\n</html>\n")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// indexBody lists the pages and components of the project.
func indexBody(pages []string, components []*registry.ComponentInfo) string {
	var b strings.Builder
	b.WriteString("<main><h1>quicksite preview</h1><h2>Pages</h2><ul>")
	for _, name := range pages {
		link(&b, "/page/"+name, name)
	}
	b.WriteString("</ul><h2>Components</h2><ul>")
	for _, c := range components {
		label := c.Name
		if !c.Valid {
			label += " (invalid)"
		}
		link(&b, "/component/"+c.Name, label)
	}
	b.WriteString("</ul></main>")
	return b.String()
}

func link(b *strings.Builder, href, label string) {
	b.WriteString(`<li><a href="`)
	b.WriteString(templ.EscapeString(href))
	b.WriteString(`">`)
	b.WriteString(templ.EscapeString(label))
	b.WriteString("</a></li>")
}
