// Package filecomp builds a component tree from template files.
//
// Every file matching the pattern (default "**/*.html") becomes a
// component named after its path: "cards/product.html" is used as
// <c-cards-product>. The files document.html, head.html and body.html at
// the top level fill the root singletons. All components can use each
// other.
//
// Templates are html/template documents executed against a View:
//
//	<article class="card" id="{{.ID}}">
//	  <h2>{{.Attr "title"}}</h2>
//	  <slot>No description.</slot>
//	</article>
//
// Files come from a Source: an afero filesystem (FSSource) or an S3
// bucket (S3Source).
package filecomp
