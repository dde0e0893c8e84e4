// Package realtime moves persisted notifications to live clients: the
// publisher puts them on the broker, the listener takes them off and the
// registry hands them to every open stream of the recipient.
package realtime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	channelPrefix = "notifications:"
	// ChannelPattern matches every recipient channel
	ChannelPattern = channelPrefix + "*"
)

// ErrInvalidChannel is returned for channel names without a numeric recipient suffix
var ErrInvalidChannel = errors.New("invalid notification channel")

// ChannelFor returns the broker channel of a recipient
func ChannelFor(recipientID uint) string {
	return channelPrefix + strconv.FormatUint(uint64(recipientID), 10)
}

// RecipientFromChannel parses the recipient id after the last ':' of channel
func RecipientFromChannel(channel string) (uint, error) {
	i := strings.LastIndexByte(channel, ':')
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	id, err := strconv.ParseUint(channel[i+1:], 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
	}
	return uint(id), nil
}
