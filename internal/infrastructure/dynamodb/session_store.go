package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	awsv2dynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsv2types "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	awsv2xray "github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"github.com/aws/aws-xray-sdk-go/xray"
)

// API is the subset of the DynamoDB client used by SessionStore.
type API interface {
	GetItem(ctx context.Context, in *awsv2dynamodb.GetItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *awsv2dynamodb.UpdateItemInput, optFns ...func(*awsv2dynamodb.Options)) (*awsv2dynamodb.UpdateItemOutput, error)
}

type Client struct {
	db        API
	tableName string
}

func NewClient(ctx context.Context, region, tableName string, tracing bool) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	if tracing {
		awsv2xray.AWSV2Instrumentor(&cfg.APIOptions)
	}
	return &Client{db: awsv2dynamodb.NewFromConfig(cfg), tableName: tableName}, nil
}

func NewClientWithAPI(db API, tableName string) *Client {
	return &Client{db: db, tableName: tableName}
}

func profilePK(profile string) string { return "PROFILE#" + profile }
func sessionSK() string               { return "SESSION" }

func isConditionalCheckFailure(err error) bool {
	var condErr *awsv2types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// SessionStore keeps the session keys of a profile as attributes of one
// item, so every Put and Delete is a single-item write.
type SessionStore struct {
	client  *Client
	profile string
}

func NewSessionStore(client *Client, profile string) *SessionStore {
	return &SessionStore{client: client, profile: profile}
}

func (s *SessionStore) key() map[string]awsv2types.AttributeValue {
	return map[string]awsv2types.AttributeValue{
		"PK": &awsv2types.AttributeValueMemberS{Value: profilePK(s.profile)},
		"SK": &awsv2types.AttributeValueMemberS{Value: sessionSK()},
	}
}

func (s *SessionStore) Get(ctx context.Context, key string) (string, bool, error) {
	var out *awsv2dynamodb.GetItemOutput
	err := capture(ctx, "DynamoDB.GetSession", func(ctx context.Context) error {
		var e error
		out, e = s.client.db.GetItem(ctx, &awsv2dynamodb.GetItemInput{
			TableName:                aws.String(s.client.tableName),
			Key:                      s.key(),
			ConsistentRead:           aws.Bool(true),
			ProjectionExpression:     aws.String("#k"),
			ExpressionAttributeNames: map[string]string{"#k": key},
		})
		return e
	})
	if err != nil {
		return "", false, err
	}
	if out.Item == nil {
		return "", false, nil
	}
	av, ok := out.Item[key]
	if !ok {
		return "", false, nil
	}
	var value string
	if err := attributevalue.Unmarshal(av, &value); err != nil {
		return "", false, fmt.Errorf("decode session attribute %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SessionStore) Put(ctx context.Context, entries map[string]string) error {
	if len(entries) == 0 {
		return nil
	}
	names := map[string]string{}
	values := map[string]awsv2types.AttributeValue{
		":u": &awsv2types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
	}
	expr := "SET UpdatedAt = :u"
	for i, k := range sortedKeys(entries) {
		n, v := "#k"+strconv.Itoa(i), ":v"+strconv.Itoa(i)
		names[n] = k
		values[v] = &awsv2types.AttributeValueMemberS{Value: entries[k]}
		expr += ", " + n + " = " + v
	}
	return capture(ctx, "DynamoDB.PutSession", func(ctx context.Context) error {
		_, err := s.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName:                 aws.String(s.client.tableName),
			Key:                       s.key(),
			UpdateExpression:          aws.String(expr),
			ExpressionAttributeNames:  names,
			ExpressionAttributeValues: values,
		})
		return err
	})
}

func (s *SessionStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	names := map[string]string{}
	expr := "REMOVE "
	for i, k := range keys {
		n := "#k" + strconv.Itoa(i)
		names[n] = k
		if i > 0 {
			expr += ", "
		}
		expr += n
	}
	return capture(ctx, "DynamoDB.DeleteSession", func(ctx context.Context) error {
		_, err := s.client.db.UpdateItem(ctx, &awsv2dynamodb.UpdateItemInput{
			TableName:                aws.String(s.client.tableName),
			Key:                      s.key(),
			UpdateExpression:         aws.String(expr),
			ExpressionAttributeNames: names,
			ConditionExpression:      aws.String("attribute_exists(PK)"),
		})
		if isConditionalCheckFailure(err) {
			return nil
		}
		return err
	})
}

// capture wraps fn in an X-Ray subsegment when ctx carries a segment.
func capture(ctx context.Context, name string, fn func(context.Context) error) error {
	if xray.GetSegment(ctx) == nil {
		return fn(ctx)
	}
	return xray.Capture(ctx, name, fn)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
