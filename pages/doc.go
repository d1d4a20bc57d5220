// Package pages walks the PDF page tree and exposes per-page attributes.
//
// # Page Tree
//
// [PageTree] flattens the tree of Pages nodes into document order:
//
//	tree := pages.NewPageTree(pagesDict, resolver)
//	count, _ := tree.Count()
//	page, _ := tree.GetPage(0)  // 0-indexed
//
// Kids that point back to an ancestor stop the walk with [ErrPageTreeCycle].
//
// # Inheritance
//
// Resources, MediaBox, CropBox and Rotate are inherited from the nearest
// ancestor that defines them, however deep the tree is.
//
// # Page Access
//
// [Page] returns the normalised media and crop boxes, the rotation (0, 90,
// 180 or 270), the resources dictionary and the decoded content stream
// data.
package pages
