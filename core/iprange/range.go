// Package iprange implements inclusive IPv4 address ranges
package iprange

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
)

// IPRange is a range of IPv4 addresses from (inclusive) Start to
// (inclusive) End
type IPRange struct {
	Start net.IP
	End   net.IP
}

// Parse parses two IPv4 addresses into a validated range
func Parse(start, end string) (*IPRange, error) {
	r := &IPRange{
		Start: net.ParseIP(start).To4(),
		End:   net.ParseIP(end).To4(),
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	return r, nil
}

// Len returns the number of addresses inside the range
func (r *IPRange) Len() int {
	if r == nil {
		return 0
	}

	end4, ok := IP2Int(r.End)
	if !ok {
		return 0
	}

	start4, ok := IP2Int(r.Start)
	if !ok || start4 > end4 {
		return 0
	}

	return int(end4-start4) + 1
}

func (r *IPRange) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}

// Contains checks if ip is part of the range
func (r *IPRange) Contains(ip net.IP) bool {
	x, ok := IP2Int(ip)
	if !ok {
		return false
	}

	start, _ := IP2Int(r.Start)
	end, _ := IP2Int(r.End)

	return start <= x && x <= end
}

// Validate returns an error if r does not describe a usable IPv4 range.
// Single address ranges are allowed
func (r *IPRange) Validate() error {
	start4, startOk := IP2Int(r.Start)
	end4, endOk := IP2Int(r.End)

	if !startOk {
		return errors.New("invalid start IP")
	}

	if !endOk {
		return errors.New("invalid end IP")
	}

	if start4 > end4 {
		return errors.New("invalid range")
	}

	return nil
}

func (r *IPRange) clone() *IPRange {
	return &IPRange{
		Start: append(net.IP{}, r.Start...),
		End:   append(net.IP{}, r.End...),
	}
}

// IP2Int converts a IPv4 address to it's unsigned integer representation
func IP2Int(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}

	return binary.BigEndian.Uint32(v4), true
}

// IPRanges is a slice of IPRange sorted by increasing start IP
type IPRanges []*IPRange

func (ranges IPRanges) Len() int { return len(ranges) }

func (ranges IPRanges) Less(i, j int) bool {
	startI, _ := IP2Int(ranges[i].Start)
	startJ, _ := IP2Int(ranges[j].Start)

	return startI < startJ
}

func (ranges IPRanges) Swap(i, j int) { ranges[i], ranges[j] = ranges[j], ranges[i] }

// Contains reports whether one of the ranges contains ip
func (ranges IPRanges) Contains(ip net.IP) bool {
	for _, r := range ranges {
		if r.Contains(ip) {
			return true
		}
	}

	return false
}

// Size returns the total number of addresses in ranges
func (ranges IPRanges) Size() int {
	n := 0
	for _, r := range ranges {
		n += r.Len()
	}

	return n
}

func (ranges IPRanges) String() string {
	s := make([]string, 0, len(ranges))

	for _, r := range ranges {
		s = append(s, r.String())
	}

	return strings.Join(s, ", ")
}

// Merge sorts ranges and combines overlapping or adjacent ones. The
// input slice is reordered but its elements are not modified
func Merge(ranges []*IPRange) IPRanges {
	if len(ranges) == 0 {
		return nil
	}

	sort.Sort(IPRanges(ranges))

	stack := IPRanges{ranges[0].clone()}

	for _, cur := range ranges[1:] {
		top := stack[len(stack)-1]

		topEnd, _ := IP2Int(top.End)
		curStart, _ := IP2Int(cur.Start)
		curEnd, _ := IP2Int(cur.End)

		switch {
		case topEnd != ^uint32(0) && topEnd+1 < curStart:
			stack = append(stack, cur.clone())
		case topEnd < curEnd:
			top.End = append(net.IP{}, cur.End...)
		}
	}

	return stack
}
