// Package linkmap resolves @[label] cross-references against a registry of
// API reference links.
//
// A registry is assembled from two kinds of link maps: curated manual maps
// and maps generated from Sphinx objects.inv inventories. Manual entries
// always win over generated ones for the same label and scope.
package linkmap
