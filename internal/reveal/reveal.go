package reveal

import (
	"sync"
	"time"

	"nakupenda/backend/internal/i18n"
)

// State 信封的展示状态
type State string

const (
	// StateClosed 初始状态，信封未拆
	StateClosed State = "closed"
	// StateOpening 拆信动画进行中
	StateOpening State = "opening"
	// StatePreview 信纸探出，可抽出阅读
	StatePreview State = "preview"
	// StateOpen 终态，信件内容完全展示，无返回路径
	StateOpen State = "open"
)

// 缺省的过渡窗口时长
const (
	DefaultOpeningDelay   = 500 * time.Millisecond
	DefaultRevealGuard    = 400 * time.Millisecond
	DefaultConfettiWindow = 4 * time.Second
)

// Config 状态机配置。时长为零时使用缺省值；回调可以为 nil。
type Config struct {
	OpeningDelay   time.Duration // opening 自动推进到 preview 的延迟
	RevealGuard    time.Duration // preview→open 后守卫保持的窗口
	ConfettiWindow time.Duration // 彩带效果自动清除的窗口

	OnConfetti        func() // 彩带触发回调，整个生命周期至多一次
	OnConfettiCleared func() // 彩带清除回调
}

// Controller 驱动信封拆启的有限状态机。
//
// closed→opening 由交互信号同步触发，opening→preview 由计时器推进；
// 任一过渡进行期间守卫置位，后续交互信号被忽略，守卫在过渡结束时
// 恰好释放一次。preview→open 触发一次性的彩带效果（闩锁保证不会重放）。
type Controller struct {
	cfg Config

	mu            sync.Mutex
	state         State
	inFlight      bool
	confettiFired bool
	confettiOn    bool
	timers        []*time.Timer
	closed        bool
}

// NewController 创建状态机，初始状态为 closed。
func NewController(cfg Config) *Controller {
	if cfg.OpeningDelay <= 0 {
		cfg.OpeningDelay = DefaultOpeningDelay
	}
	if cfg.RevealGuard <= 0 {
		cfg.RevealGuard = DefaultRevealGuard
	}
	if cfg.ConfettiWindow <= 0 {
		cfg.ConfettiWindow = DefaultConfettiWindow
	}

	return &Controller{
		cfg:   cfg,
		state: StateClosed,
	}
}

// Interact 处理一次交互信号，返回该信号是否产生了状态过渡。
// 过渡进行期间以及终态下的信号被忽略。
func (c *Controller) Interact() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.inFlight {
		return false
	}

	switch c.state {
	case StateClosed:
		c.inFlight = true
		c.state = StateOpening
		c.schedule(c.cfg.OpeningDelay, func() {
			c.state = StatePreview
			c.inFlight = false
		})
		return true

	case StatePreview:
		c.inFlight = true
		c.state = StateOpen
		c.fireConfetti()
		c.schedule(c.cfg.RevealGuard, func() {
			c.inFlight = false
		})
		return true

	default:
		// opening 过渡中或已是终态
		return false
	}
}

// fireConfetti 触发一次性的彩带效果。调用方必须持有锁。
func (c *Controller) fireConfetti() {
	if c.confettiFired {
		return
	}
	c.confettiFired = true
	c.confettiOn = true

	if c.cfg.OnConfetti != nil {
		go c.cfg.OnConfetti()
	}

	c.schedule(c.cfg.ConfettiWindow, func() {
		c.confettiOn = false
		if c.cfg.OnConfettiCleared != nil {
			go c.cfg.OnConfettiCleared()
		}
	})
}

// schedule 注册一个计时回调，fn 在持锁状态下执行。调用方必须持有锁。
func (c *Controller) schedule(d time.Duration, fn func()) {
	timer := time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		fn()
	})
	c.timers = append(c.timers, timer)
}

// State 返回当前状态
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConfettiActive 返回彩带效果当前是否在展示窗口内
func (c *Controller) ConfettiActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confettiOn
}

// Instruction 返回当前状态下的操作提示文案。终态无提示。
func (c *Controller) Instruction(lang i18n.Language) string {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	switch state {
	case StateClosed:
		return i18n.T(lang, "clickToOpen")
	case StateOpening, StatePreview:
		return i18n.T(lang, "clickToRead")
	default:
		return ""
	}
}

// Close 停止所有未触发的计时器。已关闭的状态机忽略后续交互。
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
}
