package txlcn

import "time"

const defaultTimeout = 8 * time.Second

type Options struct {
	// 分布式事务执行时长上限，超出后 IsTransactionTimeout 返回 true
	Timeout time.Duration
	// 当前时间来源，测试场景可注入
	NowFunc func() time.Time

	primaryKeysProviders []PrimaryKeysProvider
	modeProperties       []ModeProperties
}

type Option func(*Options)

func WithTimeout(timeout time.Duration) Option {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return func(o *Options) {
		o.Timeout = timeout
	}
}

func WithNowFunc(nowFunc func() time.Time) Option {
	return func(o *Options) {
		o.NowFunc = nowFunc
	}
}

func WithPrimaryKeysProviders(providers ...PrimaryKeysProvider) Option {
	return func(o *Options) {
		o.primaryKeysProviders = append(o.primaryKeysProviders, providers...)
	}
}

func WithModeProperties(properties ...ModeProperties) Option {
	return func(o *Options) {
		o.modeProperties = append(o.modeProperties, properties...)
	}
}

func repair(o *Options) {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}

	if o.NowFunc == nil {
		o.NowFunc = time.Now
	}
}
