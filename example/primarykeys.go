package example

// StaticPrimaryKeysProvider 以静态配置补充各表的候选主键列
type StaticPrimaryKeysProvider struct {
	keysByTable map[string][]string
}

func NewStaticPrimaryKeysProvider(keysByTable map[string][]string) *StaticPrimaryKeysProvider {
	return &StaticPrimaryKeysProvider{
		keysByTable: keysByTable,
	}
}

func (s *StaticPrimaryKeysProvider) Provide() map[string][]string {
	return s.keysByTable
}

// StaticModeProperties 以静态配置写入事务模式属性
type StaticModeProperties map[string]interface{}

func (s StaticModeProperties) Provide() map[string]interface{} {
	return s
}
