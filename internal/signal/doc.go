// Package signal implements bounded, reusable command slots between
// independently running state machines.
//
// A Definition describes one kind of signal: a fixed parameter layout, a
// fixed result layout, a queue capacity and a lifetime. Build allocates all
// instances in a single contiguous block; after that no signal operation
// allocates.
//
// Lifecycle of one instance:
//
//	Unused -> Prepare -> InPreparation -> Trigger -> Active
//	       -> Check -> InProcess -> Finish -> Finished -> (lifetime) -> Unused
//
// Producers hold a Sender, consumers a Receiver. Both are small values that
// name an instance by index and generation. The generation changes every
// time the instance is prepared again, so a view that outlived its instance
// is detected instead of reading somebody else's data.
//
// A Handler groups the definitions of one domain and gates them behind an
// initialization phase. The Registry maps domain names to handlers.
package signal
