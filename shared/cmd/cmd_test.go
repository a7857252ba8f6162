package cmd

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type cmdSuite struct {
	suite.Suite
}

func TestCmdSuite(t *testing.T) {
	suite.Run(t, new(cmdSuite))
}

// The first different string is used in sorting, numbers in natural order.
func (s *cmdSuite) TestStringList() {
	data := [][]string{{"vm10", "eth0"}, {"vm2", "eth1"}, {"vm2", "eth0"}, {"", "eth0"}}
	sort.Sort(StringList(data))
	s.Equal([][]string{{"vm2", "eth0"}, {"vm2", "eth1"}, {"vm10", "eth0"}, {"", "eth0"}}, data)
}

func (s *cmdSuite) TestRenderTable_CSV() {
	buf := &bytes.Buffer{}
	err := RenderTable(buf, TableFormatCSV, []string{"NIC", "MAC"}, [][]string{{"eth0", "9a:00:00:00:00:01"}, {"eth1", ""}}, nil)
	s.Require().NoError(err)
	s.Equal("eth0,9a:00:00:00:00:01\neth1,\n", buf.String())
}

func (s *cmdSuite) TestRenderTable_Table() {
	for _, format := range []string{TableFormatTable, TableFormatCompact} {
		buf := &bytes.Buffer{}
		err := RenderTable(buf, format, []string{"NIC", "MAC"}, [][]string{{"eth0", "9a:00:00:00:00:01"}}, nil)
		s.Require().NoError(err)
		s.Contains(buf.String(), "NIC")
		s.Contains(buf.String(), "9a:00:00:00:00:01")
	}
}

func (s *cmdSuite) TestRenderTable_YAML() {
	buf := &bytes.Buffer{}
	err := RenderTable(buf, TableFormatYAML, nil, nil, map[string]string{"nic": "eth0"})
	s.Require().NoError(err)
	s.Equal("nic: eth0\n", buf.String())
}

func (s *cmdSuite) TestRenderTable_InvalidFormat() {
	err := RenderTable(&bytes.Buffer{}, "xml", nil, nil, nil)
	s.EqualError(err, `Invalid format "xml"`)
}

func (s *cmdSuite) TestAskBool() {
	out := &bytes.Buffer{}
	asker := NewAsker(strings.NewReader("maybe\ny\n\n"), out)

	answer, err := asker.AskBool("Proceed? (yes/no) [default=no]: ", "no")
	s.Require().NoError(err)
	s.True(answer)
	s.Contains(out.String(), "Invalid input")

	answer, err = asker.AskBool("Proceed? (yes/no) [default=no]: ", "no")
	s.Require().NoError(err)
	s.False(answer)

	_, err = asker.AskBool("Proceed? ", "no")
	s.Error(err)
}

func (s *cmdSuite) TestFormatSection() {
	s.Equal("Fields:\n  mac\n  ip\n\n", FormatSection("Fields", "mac\nip"))
	s.Equal("  mac\n  ip", FormatSection("", "mac\nip"))
}
