package render

import (
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/alexisyang718-beep/karpathy-rss-digest/internal/digest"
)

var templateFuncs = map[string]any{
	"headline": func(it digest.Item) string {
		if it.AITitle != "" {
			return it.AITitle
		}
		return it.Title
	},
	"summary": func(it digest.Item) string {
		if it.AISummary != "" {
			return it.AISummary
		}
		return it.Summary
	},
	"pubdate": func(it digest.Item) string {
		if it.Published == nil {
			return ""
		}
		return it.Published.Format("2006-01-02 15:04")
	},
	"anchor": func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			case r == ' ' || r == '-' || r == '_':
				return '-'
			default:
				return -1
			}
		}, s)
	},
	"joinTags": func(tags []string) string {
		return strings.Join(tags, " · ")
	},
	"year": func() int { return time.Now().Year() },
}

var pageTemplate = htmltemplate.Must(htmltemplate.New("page").Funcs(templateFuncs).Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Karpathy RSS 实时精选 - {{.Date}}</title>
<style>
body { font-family: -apple-system, "PingFang SC", "Microsoft YaHei", sans-serif; max-width: 860px; margin: 0 auto; padding: 24px; color: #24292f; line-height: 1.65; }
h1 { border-bottom: 2px solid #0969da; padding-bottom: 8px; }
h2 { margin-top: 40px; border-bottom: 1px solid #d0d7de; padding-bottom: 6px; }
.meta { color: #57606a; font-size: 14px; }
.toc { background: #f6f8fa; border-radius: 6px; padding: 12px 24px; margin: 20px 0; }
.article { margin: 28px 0; }
.article h3 { margin-bottom: 4px; }
.article .byline { color: #57606a; font-size: 13px; }
.article .tags { color: #0969da; font-size: 13px; }
.article .detail { background: #f6f8fa; border-left: 3px solid #0969da; padding: 10px 14px; margin-top: 8px; white-space: pre-wrap; }
.article a { color: #0969da; text-decoration: none; }
footer { margin-top: 48px; color: #57606a; font-size: 13px; border-top: 1px solid #d0d7de; padding-top: 12px; }
</style>
</head>
<body>
<h1>📰 Karpathy RSS 实时精选</h1>
<p class="meta">{{.Date}} · 共 {{.Total}} 篇文章 · 来自 {{.SourceCount}} 个信息源</p>
<nav class="toc">
<strong>目录</strong>
<ul>
{{- range .Groups}}
<li><a href="#{{anchor .Display}}">{{.Display}}</a>（{{len .Items}} 篇）</li>
{{- end}}
</ul>
</nav>
{{- range .Groups}}
<h2 id="{{anchor .Display}}">{{.Display}}</h2>
{{- range .Items}}
<div class="article">
<h3><a href="{{.Link}}" target="_blank" rel="noopener">{{headline .}}</a></h3>
<p class="byline">{{.Source}}{{with .Author}} · {{.}}{{end}}{{with pubdate .}} · {{.}}{{end}}</p>
{{- with .Tags}}
<p class="tags">{{joinTags .}}</p>
{{- end}}
<p>{{summary .}}</p>
{{- with .AIDetail}}
<div class="detail">{{.}}</div>
{{- end}}
<p><a href="{{.Link}}" target="_blank" rel="noopener">阅读原文 →</a></p>
</div>
{{- end}}
{{- end}}
<footer>由 Karpathy RSS Digest 自动生成 · {{year}}</footer>
</body>
</html>
`))

var indexTemplate = htmltemplate.Must(htmltemplate.New("index").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Karpathy RSS 实时精选</title>
<style>
body { font-family: -apple-system, "PingFang SC", "Microsoft YaHei", sans-serif; max-width: 720px; margin: 0 auto; padding: 24px; color: #24292f; }
h1 { border-bottom: 2px solid #0969da; padding-bottom: 8px; }
li { margin: 8px 0; }
a { color: #0969da; text-decoration: none; }
</style>
</head>
<body>
<h1>📰 Karpathy RSS 实时精选</h1>
<p>每日 AI、科技与商业资讯摘要。</p>
<ul>
{{- range .Digests}}
<li><a href="{{.Filename}}">{{.Date}}</a></li>
{{- end}}
</ul>
</body>
</html>
`))

var markdownTemplate = texttemplate.Must(texttemplate.New("markdown").Funcs(templateFuncs).Parse(`# 📰 Karpathy RSS 实时精选

> {{.Date}} · 共 {{.Total}} 篇文章 · 来自 {{.SourceCount}} 个信息源
{{range .Groups}}
## {{.Display}}
{{range .Items}}
### [{{headline .}}]({{.Link}})

*{{.Source}}{{with .Author}} · {{.}}{{end}}{{with pubdate .}} · {{.}}{{end}}*
{{with .Tags}}
标签：{{joinTags .}}
{{end}}
{{summary .}}
{{with .AIDetail}}
> {{.}}
{{end}}
[阅读原文 →]({{.Link}})
{{end}}{{end}}`))
