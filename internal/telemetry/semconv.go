package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by venue instruments.
const (
	AttrVenue     = attribute.Key("venue")
	AttrRecord    = attribute.Key("record")
	AttrReason    = attribute.Key("reason")
	AttrOutcome   = attribute.Key("outcome")
	AttrMethod    = attribute.Key("http.method")
	AttrEndpoint  = attribute.Key("endpoint")
	AttrStatus    = attribute.Key("http.status")
	AttrErrorCode = attribute.Key("error.code")
)

// Venue values
const (
	VenueCoinbasePro = "coinbasepro"
	VenueHuobi       = "huobi"
)

// DropAttributes labels a record discarded during adaptation.
func DropAttributes(venue, record, reason string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrVenue.String(venue),
		AttrRecord.String(record),
		AttrReason.String(reason),
	}
}

// RESTAttributes labels a completed REST round trip.
func RESTAttributes(venue, method, endpoint string, status int) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrVenue.String(venue),
		AttrMethod.String(method),
		AttrEndpoint.String(endpoint),
		AttrStatus.Int(status),
	}
}
