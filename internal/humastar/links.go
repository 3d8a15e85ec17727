package humastar

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// EntryPath is the API entry point every collection links back to.
const EntryPath = "/health"

// LinkSet holds the RFC 8288 link headers generated from an OpenAPI
// document, keyed by operation path.
type LinkSet struct {
	links map[string][]string
}

// AutoLinks walks the OpenAPI spec and generates hypermedia links.
// searchPath, when registered, is linked from every collection with
// rel="search". Call after all routes are registered.
func AutoLinks(api huma.API, searchPath string) *LinkSet {
	oapi := api.OpenAPI()
	ls := &LinkSet{links: map[string][]string{}}

	// Collection paths have no {param}; editor (Datastar SSE) endpoints are
	// not part of the hypermedia graph.
	type pathInfo struct {
		path string
		tags []string
	}
	var collections, items []pathInfo

	for p, pi := range oapi.Paths {
		tags := primaryTags(pi)
		if slices.Contains(tags, "editor") {
			continue
		}
		info := pathInfo{path: p, tags: tags}
		if strings.Contains(p, "{") {
			items = append(items, info)
		} else {
			collections = append(collections, info)
		}
	}

	_, hasSearch := oapi.Paths[searchPath]
	hasSearch = hasSearch && searchPath != ""

	// item → collection, up
	for _, item := range items {
		parent := path.Dir(item.path)
		if strings.Contains(parent, "{") {
			parent = path.Dir(parent)
		}
		if _, ok := oapi.Paths[parent]; ok {
			ls.add(item.path, parent, "collection")
			ls.add(item.path, parent, "up")
		}
	}

	// collection → item template, entry point, search
	for _, coll := range collections {
		for _, item := range items {
			if path.Dir(item.path) == coll.path {
				ls.add(coll.path, item.path, "item")
			}
		}
		if coll.path != EntryPath {
			ls.add(coll.path, EntryPath, "up")
		}
		if hasSearch && coll.path != searchPath {
			ls.add(coll.path, searchPath, "search")
		}
	}

	// action rels from HTTP methods
	for _, coll := range collections {
		if oapi.Paths[coll.path].Post != nil {
			ls.add(coll.path, coll.path, "create-form")
		}
	}
	for _, item := range items {
		pi := oapi.Paths[item.path]
		if pi.Put != nil || pi.Patch != nil {
			ls.add(item.path, item.path, "edit")
			ls.add(item.path, item.path, "edit-form")
		}
	}

	// cross-link collections sharing a tag
	for i, a := range collections {
		for j, b := range collections {
			if i == j {
				continue
			}
			if sharedTag(a.tags, b.tags) != "" {
				ls.add(a.path, b.path, lastSegment(b.path))
			}
		}
	}

	// entry point → every collection plus discovery rels
	for _, coll := range collections {
		if coll.path == EntryPath {
			continue
		}
		ls.add(EntryPath, coll.path, lastSegment(coll.path))
	}
	ls.add(EntryPath, "/openapi.json", "describedby")
	ls.add(EntryPath, "/openapi.json", "service-desc")
	ls.add(EntryPath, "/docs", "service-doc")

	// describedby per resource
	for _, all := range [][]pathInfo{collections, items} {
		for _, pi := range all {
			if ref := getResponseSchemaRef(oapi.Paths[pi.path]); ref != "" {
				ls.add(pi.path, "/openapi.json#/components/schemas/"+ref, "describedby")
			}
		}
	}

	// document the relations in the OpenAPI document
	for p, pi := range oapi.Paths {
		headers, ok := ls.links[p]
		if !ok {
			continue
		}
		for _, op := range operationsOf(pi) {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}

	return ls
}

// For returns the generated Link header values for an operation path.
func (ls *LinkSet) For(opPath string) []string {
	if ls == nil {
		return nil
	}
	return ls.links[opPath]
}

// Root returns the entry point links, for use by non-Huma handlers.
func (ls *LinkSet) Root() []string {
	return ls.For(EntryPath)
}

// Transformer returns a Huma Transformer that injects the generated Link
// headers plus self, pagination and action links at runtime.
func (ls *LinkSet) Transformer() huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range ls.For(op.Path) {
			ctx.AppendHeader("Link", link)
		}

		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if p, ok := v.(Pager); ok {
			for _, link := range p.PaginationLinks(ctx.URL().Path) {
				ctx.AppendHeader("Link", link)
			}
		}

		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}

func (ls *LinkSet) add(from, to, rel string) {
	val := fmt.Sprintf(`<%s>; rel="%s"`, to, rel)
	if !slices.Contains(ls.links[from], val) {
		ls.links[from] = append(ls.links[from], val)
	}
}

func primaryTags(pi *huma.PathItem) []string {
	for _, op := range operationsOf(pi) {
		if op != nil && len(op.Tags) > 0 {
			return op.Tags
		}
	}
	return nil
}

func operationsOf(pi *huma.PathItem) []*huma.Operation {
	return []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete}
}

func sharedTag(a, b []string) string {
	for _, t := range a {
		if slices.Contains(b, t) {
			return t
		}
	}
	return ""
}

func lastSegment(p string) string {
	parts := strings.Split(strings.TrimRight(p, "/"), "/")
	return parts[len(parts)-1]
}

// injectResponseLinks adds OpenAPI Link objects to the operation's success
// response.
func injectResponseLinks(op *huma.Operation, headers []string) {
	if op.Responses == nil {
		return
	}
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func getResponseSchemaRef(pi *huma.PathItem) string {
	if pi.Get == nil || pi.Get.Responses == nil {
		return ""
	}
	for code, resp := range pi.Get.Responses {
		if !strings.HasPrefix(code, "2") || resp.Content == nil {
			continue
		}
		for _, mt := range resp.Content {
			if mt.Schema != nil && mt.Schema.Ref != "" {
				// "#/components/schemas/Foo" → "Foo"
				parts := strings.Split(mt.Schema.Ref, "/")
				return parts[len(parts)-1]
			}
		}
	}
	return ""
}

func parseLinkHeader(h string) (rel, href string) {
	parts := strings.SplitN(h, ";", 2)
	if len(parts) < 2 {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(parts[0]), "<>")
	relPart := strings.TrimSpace(parts[1])
	if strings.HasPrefix(relPart, `rel="`) {
		rel = strings.Trim(relPart[4:], `"`)
	}
	return rel, href
}
