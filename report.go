package smplock

import (
	"encoding/xml"
	"io"
)

type reportTime struct {
	Unit  string `xml:"unit,attr"`
	Value uint64 `xml:",chardata"`
}

type reportContention struct {
	InitialQueueLength int    `xml:"initialQueueLength,attr"`
	Count              uint64 `xml:",chardata"`
}

type lockReport struct {
	XMLName          xml.Name           `xml:"SMPLockProfilingReport"`
	Name             string             `xml:"name,attr"`
	MaxAcquireTime   reportTime         `xml:"MaxAcquireTime"`
	MaxSectionTime   reportTime         `xml:"MaxSectionTime"`
	MeanAcquireTime  reportTime         `xml:"MeanAcquireTime"`
	MeanSectionTime  reportTime         `xml:"MeanSectionTime"`
	TotalAcquireTime reportTime         `xml:"TotalAcquireTime"`
	TotalSectionTime reportTime         `xml:"TotalSectionTime"`
	UsageCount       uint64             `xml:"UsageCount"`
	ContentionCounts []reportContention `xml:"ContentionCount"`
}

func newLockReport(name string, s *Snapshot) *lockReport {
	ns := func(v uint64) reportTime { return reportTime{Unit: "ns", Value: v} }
	mean := func(total uint64) uint64 {
		if s.UsageCount == 0 {
			return 0
		}
		return total / s.UsageCount
	}
	r := &lockReport{
		Name:             name,
		MaxAcquireTime:   ns(uint64(s.MaxAcquireTime)),
		MaxSectionTime:   ns(uint64(s.MaxSectionTime)),
		MeanAcquireTime:  ns(mean(s.TotalAcquireTime)),
		MeanSectionTime:  ns(mean(s.TotalSectionTime)),
		TotalAcquireTime: ns(s.TotalAcquireTime),
		TotalSectionTime: ns(s.TotalSectionTime),
		UsageCount:       s.UsageCount,
		ContentionCounts: make([]reportContention, ContentionCounts),
	}
	for i, c := range s.ContentionCounts {
		r.ContentionCounts[i] = reportContention{InitialQueueLength: i, Count: c}
	}
	return r
}

// WriteReport writes every registered lock to w as XML:
//
//	<ProfilingReport name="...">
//	  <SMPLockProfilingReport name="lock">
//	    <MaxAcquireTime unit="ns">...</MaxAcquireTime>
//	    ...
//	    <ContentionCount initialQueueLength="0">...</ContentionCount>
//	  </SMPLockProfilingReport>
//	</ProfilingReport>
//
// Locks are encoded as they are visited; a slow w never holds up lock
// holders.
func WriteReport(w io.Writer, name string) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "ProfilingReport"},
		Attr: []xml.Attr{{Name: xml.Name{Local: "name"}, Value: name}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return err
	}
	var err error
	Iterate(func(lock string, s *Snapshot) bool {
		err = enc.Encode(newLockReport(lock, s))
		return err == nil
	})
	if err != nil {
		return err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return err
	}
	return enc.Flush()
}
