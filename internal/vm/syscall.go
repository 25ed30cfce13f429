package vm

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/xyproto/r2k/internal/isa"
)

// fileTable tracks the simulated program's open files, keyed by the
// SPIM-style descriptor handed back from SYS_OPEN. Descriptors 0-2 are
// reserved for the inherited stdio streams and are never present here.
type fileTable struct {
	fds    map[uint32]int
	nextFd uint32
}

func newFileTable() *fileTable {
	return &fileTable{fds: make(map[uint32]int), nextFd: 3}
}

var stdin = bufio.NewReader(os.Stdin)

// syscall services the trap raised by SYSCALL/BREAK, dispatching on the
// SPIM-compatible convention: $v0 selects the call, $a0-$a3 carry
// arguments, and $v0/$v1 carry results.
func (m *Machine) syscall() error {
	switch m.Reg[isa.RegV0] {
	case isa.SyscallPrintInt:
		fmt.Print(int32(m.Reg[isa.RegA0]))

	case isa.SyscallPrintString:
		s, err := m.readString(m.Reg[isa.RegA0])
		if err != nil {
			return &Error{Kind: UnhandledException, Msg: "unhandled exception: memory exception: " + err.Error()}
		}
		fmt.Print(s)

	case isa.SyscallReadInt:
		line, _ := stdin.ReadString('\n')
		digits := takeWhileDigits(line)
		n, err := strconv.ParseInt(digits, 10, 32)
		if err != nil {
			m.Reg[isa.RegV1] = 1
		} else {
			m.Reg[isa.RegV0] = uint32(n)
			m.Reg[isa.RegV1] = 0
		}

	case isa.SyscallReadString:
		line, _ := stdin.ReadString('\n')
		bufAddr := m.Reg[isa.RegA0]
		m.Reg[isa.RegV0] = bufAddr
		length := m.Reg[isa.RegA1]
		read := uint32(0)
		bytes := []byte(line)
		if length > 0 && uint32(len(bytes)) > length-1 {
			bytes = bytes[:length-1]
		}
		for _, b := range bytes {
			if err := m.Mem.WriteByte(bufAddr, b); err != nil {
				return &Error{Kind: UnhandledException, Msg: "unhandled exception: memory exception: " + err.Error()}
			}
			bufAddr++
			read++
		}
		if err := m.Mem.WriteByte(bufAddr, 0); err != nil {
			return &Error{Kind: UnhandledException, Msg: "unhandled exception: memory exception: " + err.Error()}
		}
		if read == 0 {
			m.Reg[isa.RegV0] = 0
		}

	case isa.SyscallSbrk:
		m.Reg[isa.RegV0] = m.heapStart
		if m.Reg[isa.RegA0] != 0 {
			newPages := (m.Reg[isa.RegA0] + PageSize - 1) / PageSize
			for i := uint32(0); i < newPages; i++ {
				m.Mem.AllocPage(m.heapNextPage, true, false)
				m.heapNextPage += PageSize
			}
			m.heapSize += newPages * PageSize
		}
		m.Reg[isa.RegV1] = m.heapSize

	case isa.SyscallExit:
		m.exited = true
		m.exit = Exit{Code: 0}

	case isa.SyscallPrintChar:
		fmt.Print(string(rune(byte(m.Reg[isa.RegA0]))))

	case isa.SyscallReadChar:
		var b [1]byte
		if _, err := os.Stdin.Read(b[:]); err == nil {
			m.Reg[isa.RegV0] = uint32(b[0])
		}

	case isa.SyscallOpen:
		name, err := m.readString(m.Reg[isa.RegA0])
		if err != nil {
			return &Error{Kind: UnhandledException, Msg: "unhandled exception: memory exception: " + err.Error()}
		}
		flags := spimFlagsToUnix(m.Reg[isa.RegA1])
		mode := uint32(m.Reg[isa.RegA2])
		fd, err := unix.Open(name, flags, mode)
		if err != nil {
			m.Reg[isa.RegV0] = uint32(int32(-1))
		} else {
			m.files.fds[m.files.nextFd] = fd
			m.Reg[isa.RegV0] = m.files.nextFd
			m.files.nextFd++
		}

	case isa.SyscallRead:
		fd, ok := m.files.fds[m.Reg[isa.RegA0]]
		if !ok {
			m.Reg[isa.RegV0] = uint32(int32(-1))
			break
		}
		length := m.Reg[isa.RegA2]
		buf := make([]byte, length)
		n, err := unix.Read(fd, buf)
		if err != nil || n < 0 {
			m.Reg[isa.RegV0] = uint32(int32(-1))
			break
		}
		m.Reg[isa.RegV0] = uint32(n)
		dst := m.Reg[isa.RegA1]
		for i := 0; i < n; i++ {
			if err := m.Mem.WriteByte(dst+uint32(i), buf[i]); err != nil {
				return &Error{Kind: UnhandledException, Msg: "unhandled exception: memory exception: " + err.Error()}
			}
		}

	case isa.SyscallWrite:
		fd, ok := m.files.fds[m.Reg[isa.RegA0]]
		if !ok {
			m.Reg[isa.RegV0] = uint32(int32(-1))
			break
		}
		length := m.Reg[isa.RegA2]
		buf := make([]byte, length)
		src := m.Reg[isa.RegA1]
		for i := uint32(0); i < length; i++ {
			b, err := m.Mem.ReadByte(src + i)
			if err != nil {
				return &Error{Kind: UnhandledException, Msg: "unhandled exception: memory exception: " + err.Error()}
			}
			buf[i] = b
		}
		n, err := unix.Write(fd, buf)
		if err != nil {
			m.Reg[isa.RegV0] = uint32(int32(-1))
		} else {
			m.Reg[isa.RegV0] = uint32(n)
		}

	case isa.SyscallClose:
		if fd, ok := m.files.fds[m.Reg[isa.RegA0]]; ok {
			unix.Close(fd)
			delete(m.files.fds, m.Reg[isa.RegA0])
		}

	case isa.SyscallExit2:
		m.exited = true
		m.exit = Exit{Code: m.Reg[isa.RegA0]}
	}
	return nil
}

// readString reads the NUL-terminated byte string starting at addr.
func (m *Machine) readString(addr uint32) (string, error) {
	var buf []byte
	for {
		b, err := m.Mem.ReadByte(addr)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
		addr++
	}
	return string(buf), nil
}

func takeWhileDigits(s string) string {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || (i == 0 && (s[i] == '-' || s[i] == '+'))) {
		i++
	}
	return s[:i]
}

// spimFlagsToUnix translates the SPIM open() flag bits (0x1 write, 0x2
// read-write, 0x100 create, 0x1000 truncate; absence of all of them means
// read-only) into the host's O_* constants.
func spimFlagsToUnix(flags uint32) int {
	out := unix.O_RDONLY
	if flags == 0 {
		return out
	}
	if flags&0x1 != 0 {
		out = unix.O_WRONLY
	}
	if flags&0x2 != 0 {
		out = unix.O_RDWR
	}
	if flags&0x100 != 0 {
		out |= unix.O_CREAT
	}
	if flags&0x1000 != 0 {
		out |= unix.O_TRUNC
	}
	return out
}
