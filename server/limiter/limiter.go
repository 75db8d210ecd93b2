// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package limiter

import (
	"sync"

	"github.com/cobaltstor/cobaltmeta/server/config"
	"golang.org/x/time/rate"
)

// Delta ingestion carries the cluster's health signal and must not be shed.
var defaultUnLimitMethods = []string{"applyDeltas"}

type FlowLimiter struct {
	l *rate.Limiter
	// lock protects the following fields.
	lock                          sync.RWMutex
	tokenBucketFillRate           int
	tokenBucketBurstEventCapacity int
	enable                        bool
	unLimitMethods                map[string]struct{}
}

func NewFlowLimiter(cfg config.LimiterConfig) *FlowLimiter {
	unLimitMethods := make(map[string]struct{})
	for _, method := range defaultUnLimitMethods {
		unLimitMethods[method] = struct{}{}
	}
	for _, method := range cfg.UnLimitList {
		unLimitMethods[method] = struct{}{}
	}

	return &FlowLimiter{
		l:                             rate.NewLimiter(rate.Limit(cfg.TokenBucketFillRate), cfg.TokenBucketBurstEventCapacity),
		tokenBucketFillRate:           cfg.TokenBucketFillRate,
		tokenBucketBurstEventCapacity: cfg.TokenBucketBurstEventCapacity,
		enable:                        cfg.Enable,
		unLimitMethods:                unLimitMethods,
	}
}

func (f *FlowLimiter) Allow(method string) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()

	if !f.enable {
		return true
	}
	if _, ok := f.unLimitMethods[method]; ok {
		return true
	}
	return f.l.Allow()
}

func (f *FlowLimiter) UpdateLimiter(cfg config.LimiterConfig) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.l.SetLimit(rate.Limit(cfg.TokenBucketFillRate))
	f.l.SetBurst(cfg.TokenBucketBurstEventCapacity)
	f.tokenBucketFillRate = cfg.TokenBucketFillRate
	f.tokenBucketBurstEventCapacity = cfg.TokenBucketBurstEventCapacity
	f.enable = cfg.Enable
	return nil
}

func (f *FlowLimiter) UpdateUnLimitList(unLimitMethods []string, limitMethods []string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	for _, method := range unLimitMethods {
		f.unLimitMethods[method] = struct{}{}
	}
	for _, method := range limitMethods {
		delete(f.unLimitMethods, method)
	}
	return nil
}
