package config_test

import "github.com/AntonStoeckl/library-lending-go/eventstore"

func eventstoreAnyEvent() eventstore.Filter {
	return eventstore.BuildEventFilter().MatchingAnyEvent()
}
