package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	travelerrors "github.com/byteness/travelgate/errors"
)

// dynamoDBAPI defines the DynamoDB operations used by this package.
// This interface enables testing with mock implementations.
type dynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBCatalog implements Catalog over separate flights and hotels tables.
//
// Table schema assumptions:
//   - flights: partition key flight_id, attributes class and price
//   - hotels: partition key hotel_id, attributes category and price_per_night
type DynamoDBCatalog struct {
	client       dynamoDBAPI
	flightsTable string
	hotelsTable  string
}

// NewDynamoDBCatalog creates a catalog over the given tables.
// Either table name may be empty; lookups of that kind then report not found.
func NewDynamoDBCatalog(cfg aws.Config, flightsTable, hotelsTable string) *DynamoDBCatalog {
	return newDynamoDBCatalogWithClient(dynamodb.NewFromConfig(cfg), flightsTable, hotelsTable)
}

func newDynamoDBCatalogWithClient(client dynamoDBAPI, flightsTable, hotelsTable string) *DynamoDBCatalog {
	return &DynamoDBCatalog{
		client:       client,
		flightsTable: flightsTable,
		hotelsTable:  hotelsTable,
	}
}

type flightItem struct {
	ID            string  `dynamodbav:"flight_id"`
	Class         string  `dynamodbav:"class"`
	Price         float64 `dynamodbav:"price"`
	Origin        string  `dynamodbav:"origin"`
	Destination   string  `dynamodbav:"destination"`
	Airline       string  `dynamodbav:"airline"`
	FlightNumber  string  `dynamodbav:"flight_number"`
	DepartureDate string  `dynamodbav:"departure_date"`
	DepartureTime string  `dynamodbav:"departure_time"`
	ArrivalTime   string  `dynamodbav:"arrival_time"`
}

type hotelItem struct {
	ID             string  `dynamodbav:"hotel_id"`
	Category       string  `dynamodbav:"category"`
	PricePerNight  float64 `dynamodbav:"price_per_night"`
	Name           string  `dynamodbav:"name"`
	Location       string  `dynamodbav:"location"`
	RoomType       string  `dynamodbav:"room_type"`
	RoomsAvailable int     `dynamodbav:"rooms_available"`
}

// Get retrieves an offering. Returns ErrOfferingNotFound if not exists.
func (c *DynamoDBCatalog) Get(ctx context.Context, kind Kind, id string) (*Offering, error) {
	var table, keyAttr string
	switch kind {
	case KindFlight:
		table, keyAttr = c.flightsTable, "flight_id"
	case KindHotel:
		table, keyAttr = c.hotelsTable, "hotel_id"
	default:
		return nil, fmt.Errorf("unknown offering kind %q", kind)
	}
	if table == "" {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrOfferingNotFound)
	}

	output, err := c.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key: map[string]types.AttributeValue{
			keyAttr: &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, travelerrors.WrapDynamoDBError(err, table, "GetItem")
	}
	if output.Item == nil {
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrOfferingNotFound)
	}

	if kind == KindFlight {
		var item flightItem
		if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
			return nil, fmt.Errorf("unmarshal flight: %w", err)
		}
		tier := item.Class
		if tier == "" {
			tier = ClassEconomy
		}
		return &Offering{
			ID:            id,
			Kind:          KindFlight,
			Tier:          tier,
			Price:         item.Price,
			Origin:        item.Origin,
			Destination:   item.Destination,
			Airline:       item.Airline,
			FlightNumber:  item.FlightNumber,
			DepartureDate: item.DepartureDate,
			DepartureTime: item.DepartureTime,
			ArrivalTime:   item.ArrivalTime,
		}, nil
	}

	var item hotelItem
	if err := attributevalue.UnmarshalMap(output.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal hotel: %w", err)
	}
	tier := item.Category
	if tier == "" {
		tier = CategoryStandard
	}
	roomType := item.RoomType
	if roomType == "" {
		roomType = CategoryStandard
	}
	return &Offering{
		ID:             id,
		Kind:           KindHotel,
		Tier:           tier,
		Price:          item.PricePerNight,
		Name:           item.Name,
		Location:       item.Location,
		RoomType:       roomType,
		RoomsAvailable: item.RoomsAvailable,
	}, nil
}

// DynamoDBBookingStore implements BookingStore.
//
// Table schema assumptions:
//   - Partition key: booking_id (String)
type DynamoDBBookingStore struct {
	client    dynamoDBAPI
	tableName string
}

// NewDynamoDBBookingStore creates a booking store writing to tableName.
func NewDynamoDBBookingStore(cfg aws.Config, tableName string) *DynamoDBBookingStore {
	return newDynamoDBBookingStoreWithClient(dynamodb.NewFromConfig(cfg), tableName)
}

func newDynamoDBBookingStoreWithClient(client dynamoDBAPI, tableName string) *DynamoDBBookingStore {
	return &DynamoDBBookingStore{client: client, tableName: tableName}
}

type bookingItem struct {
	ID         string  `dynamodbav:"booking_id"`
	EmployeeID string  `dynamodbav:"emp_id"`
	OfferingID string  `dynamodbav:"offering_id"`
	Kind       string  `dynamodbav:"kind"`
	Status     string  `dynamodbav:"status"`
	CreatedAt  string  `dynamodbav:"created_at"` // RFC3339
	Tier       string  `dynamodbav:"tier"`
	UnitPrice  float64 `dynamodbav:"unit_price"`
	Nights     int     `dynamodbav:"nights,omitempty"`
	TotalPrice float64 `dynamodbav:"total_price"`
}

// Put stores a new booking. Returns ErrBookingExists if the ID already exists.
func (s *DynamoDBBookingStore) Put(ctx context.Context, b *Booking) error {
	av, err := attributevalue.MarshalMap(&bookingItem{
		ID:         b.ID,
		EmployeeID: b.EmployeeID,
		OfferingID: b.OfferingID,
		Kind:       string(b.Kind),
		Status:     b.Status,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339Nano),
		Tier:       b.Tier,
		UnitPrice:  b.UnitPrice,
		Nights:     b.Nights,
		TotalPrice: b.TotalPrice,
	})
	if err != nil {
		return fmt.Errorf("marshal booking: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(booking_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%s: %w", b.ID, ErrBookingExists)
		}
		return travelerrors.WrapDynamoDBError(err, s.tableName, "PutItem")
	}
	return nil
}
