// Package inbound routes provider webhooks on the host side: it runs
// ingest_http on the addressed provider and hands the normalized events to
// an EventHandler once per platform delivery.
//
// Claims follow claim/complete/fail semantics so a delivery whose handler
// failed is accepted again when the platform retries the webhook.
package inbound
