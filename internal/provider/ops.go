package provider

// Operation names as they appear in metrics labels, cache keys, audit
// events, and error context.
const (
	OpGetList          = "getList"
	OpGetOne           = "getOne"
	OpGetMany          = "getMany"
	OpGetManyReference = "getManyReference"
	OpCreate           = "create"
	OpUpdate           = "update"
	OpUpdateMany       = "updateMany"
	OpDelete           = "delete"
	OpDeleteMany       = "deleteMany"
)
