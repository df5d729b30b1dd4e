// Package store reads the siege and event tables out of DynamoDB. It is the
// only package that knows the table shapes; everything else goes through the
// city.EventSource interface it satisfies.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hunterjsb/warwatch/internal/city"
)

const lookupTimeout = 10 * time.Second

// Client queries the DynamoDB tables the event pipeline writes: one siege
// table keyed by city display name, and one event table per city keyed by
// ISO date.
type Client struct {
	db          *dynamodb.Client
	tablePrefix string
	siegeTable  string
}

// New establishes the DynamoDB session. Failing here is a startup-fatal
// condition for the caller.
func New(ctx context.Context, region, tablePrefix, siegeTable string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("store: load aws config: %w", err)
	}
	return &Client{
		db:          dynamodb.NewFromConfig(cfg),
		tablePrefix: tablePrefix,
		siegeTable:  siegeTable,
	}, nil
}

// SiegeWindow looks up a city's daily siege time by display name. A table
// miss returns "", nil; whether that is acceptable is the caller's call.
func (c *Client) SiegeWindow(ctx context.Context, cityName string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	out, err := c.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.siegeTable),
		Key: map[string]types.AttributeValue{
			"city": &types.AttributeValueMemberS{Value: cityName},
		},
	})
	if err != nil {
		return "", fmt.Errorf("store: siege window for %s: %w", cityName, err)
	}
	if out.Item == nil {
		return "", nil
	}
	return stringAttr(out.Item, "time"), nil
}

// Event looks up a city's scheduled event for an ISO date. A nil event with
// a nil error means nothing is scheduled that day.
func (c *Client) Event(ctx context.Context, cityName, date string) (*city.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	table := c.tablePrefix + city.TableKey(cityName)
	out, err := c.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			"date": &types.AttributeValueMemberS{Value: date},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: event for %s on %s: %w", cityName, date, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	ev := &city.Event{
		Type:     city.EventType(stringAttr(out.Item, "type")),
		Date:     date,
		Attacker: stringAttr(out.Item, "attacker"),
		Defender: stringAttr(out.Item, "defender"),
	}
	if ev.Type == "" {
		// Rows written before the type attribute existed are all invasions.
		ev.Type = city.Invasion
	}
	return ev, nil
}

// stringAttr extracts a string attribute from an item, or "" when absent or
// not a string.
func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
