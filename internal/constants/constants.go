package constants

import "time"

const ModuleName = "github.com/RoyceAzure/lab/grocery"

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  ContextKey = "authorization"
	AuthorizationTypeBearer ContextKey = "bearer"
	AuthorizationPayloadKey ContextKey = "authorization_payload"
)

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

type RequestID string

const (
	RequestIDKey RequestID = "request_id"
)

// 持久化 key，每個 value 都是一份完整的 json
const (
	StoreKeyToken      = "token"
	StoreKeyUser       = "user"
	StoreKeyUsers      = "users"
	StoreKeyCartItems  = "cart_items"
	StoreKeyUserOrders = "user_orders"
)

type StoreDriver string

const (
	StoreDriverMemory   StoreDriver = "memory"
	StoreDriverRedis    StoreDriver = "redis"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverMysql    StoreDriver = "mysql"
)

// 訂單 & 積分
const (
	OrderNumberPrefix       = "ORD"
	OrderNumberMaxAttempts  = 20
	LoyaltyRupeesPerPoint   = 100
	DeliveryFee             = 40
	FreeDeliveryThreshold   = 500
	MinPasswordLength       = 6
	DefaultLoginLatency     = time.Second
	DefaultOrderLatency     = 1500 * time.Millisecond
	DefaultShutdownDuration = 30 * time.Second
	EventPublishTimeout     = 5 * time.Second
)

// 種子帳號
const (
	SeedAdminEmail        = "admin@gokulbhandar.com"
	SeedAdminName         = "Admin User"
	SeedCustomerEmail     = "customer@example.com"
	SeedCustomerName      = "Test Customer"
	SeedCustomerPhone     = "1234567890"
	SeedDefaultPassword   = "password123"
	SeedAdminID           = "admin-1"
	SeedCustomerID        = "customer-1"
	DefaultKafkaTopic     = "grocery.order.events"
	DefaultStoreKeyPrefix = "grocery"
)
