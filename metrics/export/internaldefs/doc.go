// Package internaldefs holds the exported metric names and histogram bounds
// for userauth engine counters.
//
// Exporters read the definitions from here so a metric keeps one name no
// matter how it is scraped.
package internaldefs
