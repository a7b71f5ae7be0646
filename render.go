package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/services/queue"
	"github.com/estafette/estafette-ci-teamcity/services/resolver"
	"github.com/logrusorgru/aurora"
	"github.com/olekukonko/tablewriter"
)

func colorize(state api.BuildState, text string) aurora.Value {
	switch state {
	case api.BuildStateFinished:
		return aurora.Green(text)
	case api.BuildStateFailed, api.BuildStateCanceled:
		return aurora.Red(text)
	case api.BuildStateRunning:
		return aurora.Cyan(text)
	}
	return aurora.Yellow(text)
}

func renderConfiguration(w io.Writer, configuration *api.Configuration) {

	data := [][]string{
		{"Id", configuration.ID},
		{"Name", configuration.FullName()},
		{"Paused", fmt.Sprintf("%v", configuration.Paused)},
		{"Personal builds", fmt.Sprintf("%v", configuration.AllowPersonalBuilds)},
		{"Vcs roots", strings.Join(configuration.VcsRootIDs, ", ")},
		{"Url", configuration.WebURL},
	}

	names := make([]string, 0, len(configuration.Parameters))
	for name := range configuration.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data = append(data, []string{name, configuration.Parameters[name]})
	}

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.AppendBulk(data)
	table.Render()
}

func renderMatches(w io.Writer, matches []resolver.Match) {

	if len(matches) == 0 {
		fmt.Fprintln(w, "No matching build configurations")
		return
	}

	data := make([][]string, 0, len(matches))
	for _, m := range matches {
		data = append(data, []string{
			m.Configuration.ID,
			m.Configuration.FullName(),
			fmt.Sprintf("%.2f", m.Score),
		})
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Id", "Name", "Score"})
	table.SetBorder(false)
	table.AppendBulk(data)
	table.Render()
}

func renderQueuedBuild(w io.Writer, build *api.QueuedBuild) {

	position := ""
	if build.QueuePosition > 0 {
		position = fmt.Sprintf("%v", build.QueuePosition)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Build", "Configuration", "Branch", "State", "Triggered by", "Position", "Url"})
	table.SetBorder(false)
	table.Append([]string{
		build.ID,
		build.BuildTypeID,
		build.BranchName,
		colorize(build.State, string(build.State)).String(),
		build.TriggeredBy,
		position,
		build.WebURL,
	})
	table.Render()
}

func renderBuildStatus(w io.Writer, status *queue.BuildStatus) {

	data := [][]string{
		{"Build", status.ID},
		{"Configuration", status.BuildTypeID},
		{"Number", status.Number},
		{"State", colorize(status.State, string(status.State)).String()},
		{"Status", status.StatusText},
		{"Branch", status.BranchName},
	}
	if status.State == api.BuildStateRunning {
		data = append(data, []string{"Progress", fmt.Sprintf("%v%% (%v of %v)", status.PercentageComplete, status.Elapsed, status.EstimatedTotal)})
	}
	if status.Tests != nil {
		data = append(data, []string{"Tests", fmt.Sprintf("%v passed, %v failed, %v ignored", status.Tests.Passed, status.Tests.Failed, status.Tests.Ignored)})
	}
	if status.Artifacts != nil {
		data = append(data, []string{"Artifacts", fmt.Sprintf("%v", status.Artifacts.Count)})
	}
	if status.CanceledBy != "" {
		data = append(data, []string{"Canceled by", status.CanceledBy})
	}
	data = append(data, []string{"Url", status.WebURL})

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.AppendBulk(data)
	table.Render()
}

func renderQueuePosition(w io.Writer, position *queue.QueuePosition) {

	place := "not queued"
	if position.Position > 0 {
		place = fmt.Sprintf("%v", position.Position)
	}
	estimate := ""
	if position.EstimatedStart != nil {
		estimate = position.EstimatedStart.Local().Format(time.RFC3339)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Build", "Position", "State", "Blocked by", "Can move to top", "Estimated start", "Wait reason"})
	table.SetBorder(false)
	table.Append([]string{
		position.BuildID,
		place,
		colorize(position.State, string(position.State)).String(),
		strings.Join(position.BlockedBy, ", "),
		strconv.FormatBool(position.CanMoveToTop),
		estimate,
		position.WaitReason,
	})
	table.Render()
}

func renderStatusLine(w io.Writer, status *queue.BuildStatus) {
	fmt.Fprintf(w, "%v build %v %v\n", time.Now().Format("15:04:05"), status.ID, colorize(status.State, string(status.State)))
}
