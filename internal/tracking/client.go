// Package tracking is a stub for the carrier-tracking collaborator. The real
// lookup hits carrier sites; this one returns deterministic placeholder data
// keyed off the tracking number so the endpoint stays demoable.
package tracking

import (
	"hash/fnv"
	"time"
)

type Client struct{}

type Info struct {
	Carrier        string    `json:"carrier"`
	TrackingNumber string    `json:"trackingNumber"`
	Status         string    `json:"status"`
	ETA            time.Time `json:"eta"`
}

var statuses = []string{"label_created", "in_transit", "at_customs", "out_for_delivery"}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Lookup(carrier, trackingNumber string) Info {
	h := fnv.New32a()
	h.Write([]byte(trackingNumber))
	n := h.Sum32()
	return Info{
		Carrier:        carrier,
		TrackingNumber: trackingNumber,
		Status:         statuses[int(n)%len(statuses)],
		ETA:            time.Now().UTC().AddDate(0, 0, 1+int(n)%7),
	}
}
