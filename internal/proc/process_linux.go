//go:build linux

package proc

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pranshuparmar/portsurgeon/pkg/model"
)

// USER_HZ; the kernel reports stat times in these units on every arch we run on.
const ticksPerSecond = 100

type statFields struct {
	comm      string
	state     string
	ppid      int
	utime     float64
	stime     float64
	startTick int64
	rssPages  uint64
}

// stat format is evil, command is inside ()
func parseStat(raw string) (statFields, error) {
	open := strings.Index(raw, "(")
	close := strings.LastIndex(raw, ")")
	if open == -1 || close == -1 || close <= open || close+2 > len(raw) {
		return statFields{}, fmt.Errorf("invalid stat format")
	}

	fields := strings.Fields(raw[close+2:])
	if len(fields) < 22 {
		return statFields{}, fmt.Errorf("invalid stat format: %d fields", len(fields))
	}

	var s statFields
	s.comm = raw[open+1 : close]
	s.state = fields[0]
	s.ppid, _ = strconv.Atoi(fields[1])
	s.utime, _ = strconv.ParseFloat(fields[11], 64)
	s.stime, _ = strconv.ParseFloat(fields[12], 64)
	s.startTick, _ = strconv.ParseInt(fields[19], 10, 64)
	s.rssPages, _ = strconv.ParseUint(fields[21], 10, 64)
	return s, nil
}

func readProcess(pid int) (model.ProcessMetadata, error) {
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return model.ProcessMetadata{}, fmt.Errorf("process %d does not exist", pid)
	}
	s, err := parseStat(string(stat))
	if err != nil {
		return model.ProcessMetadata{}, fmt.Errorf("process %d: %w", pid, err)
	}

	meta := model.ProcessMetadata{
		PID:         pid,
		Name:        s.comm,
		User:        readUser(pid),
		MemoryBytes: s.rssPages * uint64(os.Getpagesize()),
	}
	if s.ppid > 0 {
		ppid := s.ppid
		meta.PPID = &ppid
	}

	// the exe link is unreadable for other users' processes without privileges
	if exe, err := os.Readlink(fmt.Sprintf("/proc/%d/exe", pid)); err == nil {
		meta.ExePath = strings.TrimSuffix(exe, " (deleted)")
	}

	if raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid)); err == nil {
		meta.Cmdline = strings.TrimSpace(strings.ReplaceAll(string(raw), "\x00", " "))
	}

	if raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cgroup", pid)); err == nil {
		meta.Runtime = cgroupRuntime(string(raw))
	}

	boot := bootTime()
	started := boot.Add(time.Duration(s.startTick) * time.Second / ticksPerSecond)
	if s.startTick > 0 {
		meta.StartedAt = &started
	}
	if elapsed := time.Since(started).Seconds(); elapsed > 0 {
		meta.CPUPercent = (s.utime + s.stime) / ticksPerSecond / elapsed * 100
	}

	return meta, nil
}

// isAlive treats zombies as gone: they hold no sockets and cannot be signalled.
func isAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if err := unix.Kill(pid, 0); errors.Is(err, unix.ESRCH) {
		return false
	}
	stat, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	s, err := parseStat(string(stat))
	if err != nil {
		return false
	}
	return s.state != "Z" && s.state != "X"
}

var (
	bootOnce sync.Once
	bootAt   time.Time
)

func bootTime() time.Time {
	bootOnce.Do(func() {
		bootAt = time.Now()
		f, err := os.Open("/proc/stat")
		if err != nil {
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "btime") {
				parts := strings.Fields(line)
				if len(parts) < 2 {
					return
				}
				sec, _ := strconv.ParseInt(parts[1], 10, 64)
				bootAt = time.Unix(sec, 0)
				return
			}
		}
	})
	return bootAt
}

var userNames sync.Map // uid string -> name

func readUser(pid int) string {
	var st unix.Stat_t
	if err := unix.Stat(fmt.Sprintf("/proc/%d", pid), &st); err != nil {
		return "Unknown"
	}
	uid := strconv.FormatUint(uint64(st.Uid), 10)
	if name, ok := userNames.Load(uid); ok {
		return name.(string)
	}

	name := uid
	if u, err := user.LookupId(uid); err == nil {
		name = u.Username
	}
	userNames.Store(uid, name)
	return name
}
