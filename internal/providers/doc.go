// Package providers holds the concrete data-source adapters behind the
// fetch interfaces: the EastMoney JSON API for A-share statements and
// prices, an HTML-table scraper for disclosure pages, and an Excel workbook
// reader for offline statement files.
package providers
