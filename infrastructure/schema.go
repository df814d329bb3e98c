// Package infrastructure creates the DynamoDB tables the travel engine reads
// and writes. The schemas here match the item layouts of the employee,
// catalog, request and ratelimit stores.
package infrastructure

import (
	"errors"
	"fmt"

	"github.com/byteness/travelgate/request"
)

// KeyType is a DynamoDB scalar attribute type usable as a key.
type KeyType string

const (
	KeyTypeString KeyType = "S"
	KeyTypeNumber KeyType = "N"
)

// KeyAttribute names a key attribute and its type.
type KeyAttribute struct {
	Name string
	Type KeyType
}

// Validate checks the name is set and the type is S or N.
func (ka KeyAttribute) Validate() error {
	if ka.Name == "" {
		return errors.New("key attribute name is required")
	}
	if ka.Type != KeyTypeString && ka.Type != KeyTypeNumber {
		return fmt.Errorf("invalid key type %q: must be S or N", ka.Type)
	}
	return nil
}

// GSISchema is a global secondary index projecting all attributes.
type GSISchema struct {
	IndexName    string
	PartitionKey KeyAttribute
	SortKey      *KeyAttribute
}

// TableSchema describes one on-demand table.
type TableSchema struct {
	TableName    string
	PartitionKey KeyAttribute
	SortKey      *KeyAttribute
	Indexes      []GSISchema

	// TTLAttribute enables DynamoDB TTL on the attribute when set.
	TTLAttribute string
}

// Plan is the printable form of a TableSchema.
type Plan struct {
	TableName    string   `json:"table_name"`
	PartitionKey string   `json:"partition_key"`
	SortKey      string   `json:"sort_key,omitempty"`
	Indexes      []string `json:"indexes,omitempty"`
	TTLAttribute string   `json:"ttl_attribute,omitempty"`
}

// Plan describes what Create would make.
func (ts TableSchema) Plan() Plan {
	p := Plan{
		TableName:    ts.TableName,
		PartitionKey: ts.PartitionKey.Name,
		Indexes:      ts.IndexNames(),
		TTLAttribute: ts.TTLAttribute,
	}
	if ts.SortKey != nil {
		p.SortKey = ts.SortKey.Name
	}
	if len(p.Indexes) == 0 {
		p.Indexes = nil
	}
	return p
}

// Validate checks the table name and every key definition.
func (ts TableSchema) Validate() error {
	if ts.TableName == "" {
		return errors.New("table name is required")
	}
	if err := ts.PartitionKey.Validate(); err != nil {
		return fmt.Errorf("partition key: %w", err)
	}
	if ts.SortKey != nil {
		if err := ts.SortKey.Validate(); err != nil {
			return fmt.Errorf("sort key: %w", err)
		}
	}
	for _, gsi := range ts.Indexes {
		if gsi.IndexName == "" {
			return errors.New("GSI index name is required")
		}
		if err := gsi.PartitionKey.Validate(); err != nil {
			return fmt.Errorf("GSI %q partition key: %w", gsi.IndexName, err)
		}
		if gsi.SortKey != nil {
			if err := gsi.SortKey.Validate(); err != nil {
				return fmt.Errorf("GSI %q sort key: %w", gsi.IndexName, err)
			}
		}
	}
	return nil
}

// IndexNames returns the GSI names in declaration order.
func (ts TableSchema) IndexNames() []string {
	names := make([]string, len(ts.Indexes))
	for i, gsi := range ts.Indexes {
		names[i] = gsi.IndexName
	}
	return names
}

func stringKey(name string) KeyAttribute {
	return KeyAttribute{Name: name, Type: KeyTypeString}
}

// EmployeeTableSchema is keyed by emp_id.
func EmployeeTableSchema(tableName string) TableSchema {
	return TableSchema{TableName: tableName, PartitionKey: stringKey("emp_id")}
}

// ApprovalTableSchema is keyed by (request_id, emp_id) with the
// manager/status index used to list pending approvals.
func ApprovalTableSchema(tableName string) TableSchema {
	empID := stringKey("emp_id")
	status := stringKey("status")
	return TableSchema{
		TableName:    tableName,
		PartitionKey: stringKey("request_id"),
		SortKey:      &empID,
		Indexes: []GSISchema{{
			IndexName:    request.GSIManagerStatus,
			PartitionKey: stringKey("manager_id"),
			SortKey:      &status,
		}},
	}
}

// FlightsTableSchema is keyed by flight_id.
func FlightsTableSchema(tableName string) TableSchema {
	return TableSchema{TableName: tableName, PartitionKey: stringKey("flight_id")}
}

// HotelsTableSchema is keyed by hotel_id.
func HotelsTableSchema(tableName string) TableSchema {
	return TableSchema{TableName: tableName, PartitionKey: stringKey("hotel_id")}
}

// BookingsTableSchema is keyed by booking_id.
func BookingsTableSchema(tableName string) TableSchema {
	return TableSchema{TableName: tableName, PartitionKey: stringKey("booking_id")}
}

// RateLimitTableSchema holds per-window counters that expire via TTL.
func RateLimitTableSchema(tableName string) TableSchema {
	return TableSchema{TableName: tableName, PartitionKey: stringKey("pk"), TTLAttribute: "expires_at"}
}

// TableNames lists the tables of one deployment. Empty names are skipped.
type TableNames struct {
	Employees  string
	Approvals  string
	Flights    string
	Hotels     string
	Bookings   string
	RateLimits string
}

// Schemas returns the schema of every named table.
func (n TableNames) Schemas() []TableSchema {
	var out []TableSchema
	add := func(name string, schema func(string) TableSchema) {
		if name != "" {
			out = append(out, schema(name))
		}
	}
	add(n.Employees, EmployeeTableSchema)
	add(n.Approvals, ApprovalTableSchema)
	add(n.Flights, FlightsTableSchema)
	add(n.Hotels, HotelsTableSchema)
	add(n.Bookings, BookingsTableSchema)
	add(n.RateLimits, RateLimitTableSchema)
	return out
}
