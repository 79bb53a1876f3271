package broadcast

import "time"

// Config holds broker and channel settings.
// Designed for environment-based configuration using popular env parsing libraries.
type Config struct {
	MaxConcurrentWrites int           `env:"BROADCAST_MAX_CONCURRENT_WRITES" envDefault:"0"`
	ShutdownTimeout     time.Duration `env:"BROADCAST_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Inbound queue settings applied by Config.ChannelOptions.
	// A zero capacity keeps queues unbounded.
	QueueCapacity  int    `env:"BROADCAST_QUEUE_CAPACITY" envDefault:"0"`
	OverflowPolicy string `env:"BROADCAST_OVERFLOW_POLICY" envDefault:"block"`
}

// DefaultConfig returns the defaults: unbounded queues and unlimited write fan-out.
func DefaultConfig() Config {
	return Config{
		ShutdownTimeout: DefaultShutdownTimeout,
		OverflowPolicy:  OverflowBlock.String(),
	}
}

// ChannelOptions converts the queue settings into options for NewChannel.
func (c Config) ChannelOptions() ([]ChannelOption, error) {
	policy, err := ParseOverflowPolicy(c.OverflowPolicy)
	if err != nil {
		return nil, err
	}
	return []ChannelOption{
		WithCapacity(c.QueueCapacity),
		WithOverflowPolicy(policy),
	}, nil
}

// NewBrokerFromConfig creates a Broker from configuration.
// Additional options can override config values.
func NewBrokerFromConfig[T any](cfg Config, registry *Registry, opts ...BrokerOption[T]) (*Broker[T], error) {
	if registry == nil {
		return nil, ErrNilRegistry
	}
	if _, err := ParseOverflowPolicy(cfg.OverflowPolicy); err != nil {
		return nil, err
	}

	allOpts := append([]BrokerOption[T]{
		WithMaxConcurrentWrites[T](cfg.MaxConcurrentWrites),
		WithShutdownTimeout[T](cfg.ShutdownTimeout),
	}, opts...)

	return NewBroker(registry, allOpts...), nil
}
