package consts

const (
	// ChangeFeed 频道前缀：feed:<table>:<context_key>
	FeedChannelKey = "feed:"

	// 用户昵称缓存
	ProfileNameKey = "im:profile:name:"
)

const (
	TableMessages = "messages"
	TablePresence = "presence"
)
